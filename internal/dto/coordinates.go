package dto

import "motiontracker/internal/model"

// EventNewCoordinates is the event name pushed to viewers for every tracked point.
const EventNewCoordinates = "new_coordinates"

// CoordinatesMessage is the websocket payload sent after each tracked point.
// It carries only the new point; the trajectory is served by /coordinates.
type CoordinatesMessage struct {
	Event string `json:"event"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

// NewCoordinatesMessage builds the payload for a tracked point.
func NewCoordinatesMessage(point model.Point) CoordinatesMessage {
	return CoordinatesMessage{Event: EventNewCoordinates, X: point.X, Y: point.Y}
}

// ErrorResponse is the JSON body of every failed API request.
type ErrorResponse struct {
	Error string `json:"error"`
}
