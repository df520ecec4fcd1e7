package session

// client → server
const (
	EventJoin   = "join"
	EventRejoin = "rejoin"
	EventLeave  = "leave"
	EventChat   = "chat"
	EventStart  = "start"
	EventFlag   = "flag"
	EventTurn   = "turn"
)

// server → client
const (
	EventGameAssignment = "game-assignment"
	EventNewPlayer      = "new-player"
	EventPlayerRejoined = "player-rejoined"
	EventNameInUse      = "name-in-use"
	EventRejoinFailed   = "rejoin-failed"
	EventLeftGame       = "left-game"
	EventPlayerLeft     = "player-left"
	EventGameStart      = "game-start"
	EventMoveMade       = "move-made"
	EventMineHit        = "mine-hit"
	EventEndGame        = "end-game"
)

// rejoin-failed / left-game reasons
const (
	ReasonError    = "error"
	ReasonGameOver = "game-over"
)
