package model

// Room belongs to the hotel service. Available is admin-controlled;
// TimesBooked is incremented on every successful confirm and breaks ties
// in recommendation ranking.
type Room struct {
	ID          string `json:"id,omitempty" bson:"_id,omitempty"`
	HotelID     string `json:"hotel_id" bson:"hotel_id"`
	Number      string `json:"number" bson:"number"`
	Available   bool   `json:"available" bson:"available"`
	TimesBooked int    `json:"times_booked" bson:"times_booked"`
}

type RoomRequest struct {
	HotelID   string `json:"hotel_id" validate:"required"`
	Number    string `json:"number" validate:"required,min=1,max=20"`
	Available *bool  `json:"available,omitempty"`
}

// RoomSummary is the recommend response item, ordered least-booked first.
type RoomSummary struct {
	ID          string `json:"id"`
	HotelID     string `json:"hotel_id"`
	Number      string `json:"number"`
	TimesBooked int    `json:"times_booked"`
}

type Hotel struct {
	ID      string `json:"id,omitempty" bson:"_id,omitempty"`
	Name    string `json:"name" bson:"name"`
	Address string `json:"address" bson:"address"`
}

type HotelRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Address string `json:"address" validate:"required,min=2,max=200"`
}
