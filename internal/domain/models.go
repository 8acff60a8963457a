package domain

// Lot classifications for the two parking areas.
const (
	LotBank = "bank" // Bankparkplatz, spots P01..P60
	LotPost = "post" // Postparkplatz, spots PP01..PP60
)

// Booking lifecycle. Cancellation is terminal in both directions.
const (
	StatusActive            = "active"
	StatusCancelledByOwner  = "cancelled_by_owner"
	StatusCancelledByBooker = "cancelled_by_booker"
)

type Spot struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	OwnerCode string `db:"owner_code"`
	Lot       string `db:"lot"`
}

type Offer struct {
	ID        int64  `db:"id"`
	SpotID    int64  `db:"spot_id"`
	Day       string `db:"day"` // YYYY-MM-DD in the configured zone
	CreatedAt string `db:"created_at"`
}

type Booking struct {
	ID           string  `db:"id"`
	SpotID       int64   `db:"spot_id"`
	Day          string  `db:"day"`
	BookerEmail  string  `db:"booker_email"`
	Status       string  `db:"status"`
	CreatedAt    string  `db:"created_at"`
	CancelledAt  *string `db:"cancelled_at"`
	CancelReason *string `db:"cancel_reason"`
	ManageToken  string  `db:"manage_token"`
}

// Announcement is the advisory banner shown on the home page.
type Announcement struct {
	Enabled   bool   `json:"enabled"`
	Level     string `json:"level"` // info|warn|danger
	Title     string `json:"title"`
	Body      string `json:"body"`
	UpdatedAt string `json:"updated_at"`
}

// PlanLabel marks spot number N at pixel (X, Y) on the floor-plan image.
type PlanLabel struct {
	N int `json:"n"`
	X int `json:"x"`
	Y int `json:"y"`
}
