package proto

// The session handshake is a one-time JSON message sent right after the
// websocket upgrade. It never recurs in the steady-state protocol, so
// readability beats compactness here.

// WallRect mirrors one static wall for the client-side predictor.
type WallRect struct {
	MinX float32 `json:"minX"`
	MaxX float32 `json:"maxX"`
	MinZ float32 `json:"minZ"`
	MaxZ float32 `json:"maxZ"`
}

// PlatformRect mirrors one static platform.
type PlatformRect struct {
	WallRect
	Height float32 `json:"height"`
}

// Welcome assigns the session its entity id and hands over everything
// the client predictor needs to run the shared physics: tick rate and
// the immutable arena geometry.
type Welcome struct {
	Type            string         `json:"type"`
	ID              uint32         `json:"id"`
	Token           string         `json:"token"`
	TickRate        int            `json:"tickRate"`
	WorldHalfExtent float32        `json:"worldHalfExtent"`
	Walls           []WallRect     `json:"walls"`
	Platforms       []PlatformRect `json:"platforms"`
}

// WelcomeType is the type tag carried by Welcome messages.
const WelcomeType = "welcome"
