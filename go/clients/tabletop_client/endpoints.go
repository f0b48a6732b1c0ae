package tabletop_client

const (
	// Base URL
	DefaultBaseURL = "http://localhost:8080"

	// API Endpoints
	RoomsEndpoint     = "/api/rooms"
	RoomEndpoint      = "/api/rooms/%s"
	JoinEndpoint      = "/api/rooms/%s/join"
	StartEndpoint     = "/api/rooms/%s/start"
	ActionsEndpoint   = "/api/rooms/%s/actions"
	WebSocketEndpoint = "/ws"

	// Turn duration bounds accepted by room creation
	MinTurnSeconds     = 5
	MaxTurnSeconds     = 300
	DefaultTurnSeconds = 30
)
