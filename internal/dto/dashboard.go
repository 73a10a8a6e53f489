package dto

// DashboardStats captures the aggregated admin dashboard payload.
type DashboardStats struct {
	TotalStudents int          `json:"total_students"`
	RoomsOccupied int          `json:"rooms_occupied"`
	RoomsVacant   int          `json:"rooms_vacant"`
	TotalRooms    int          `json:"total_rooms"`
	FeesCollected float64      `json:"fees_collected"`
	FeesDue       float64      `json:"fees_due"`
	TotalFees     float64      `json:"total_fees"`
	RoomOccupancy []ChartPoint `json:"room_occupancy"`
}

// ChartPoint is a single named value of a chart series.
type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}
