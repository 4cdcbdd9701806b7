package engine

// Error is a rule violation with a stable machine-readable code.
// All engine failures are one of the sentinel values below; callers branch
// with errors.Is or on Code.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the stable identifier for this error kind.
func (e *Error) Code() string { return e.code }

func newError(code, msg string) *Error { return &Error{code: code, msg: msg} }

// Lobby errors.
var (
	ErrInvalidPlayerCount = newError("InvalidPlayerCount", "invalid player count, must be between 2-4 players")
	ErrGameAlreadyStarted = newError("GameAlreadyStarted", "game has already started")
	ErrGameFull           = newError("GameFull", "game is full")
	ErrPlayerNotInGame    = newError("PlayerNotInGame", "player not in game")
)

// Turn and phase errors.
var (
	ErrGameNotInProgress = newError("GameNotInProgress", "game is not in progress")
	ErrNotPlayerTurn     = newError("NotPlayerTurn", "not your turn")
	ErrNotEnoughTiles    = newError("NotEnoughTiles", "not enough tiles remaining")
	ErrTooManyTiles      = newError("TooManyTiles", "player has too many tiles")
)

// Meld structural errors.
var (
	ErrMeldTooSmall        = newError("MeldTooSmall", "meld must have at least 3 tiles")
	ErrEmptyTileInMeld     = newError("EmptyTileInMeld", "empty tile in meld")
	ErrInvalidTileIndex    = newError("InvalidTileIndex", "invalid tile index")
	ErrInvalidMeldIndex    = newError("InvalidMeldIndex", "invalid meld index")
	ErrInvalidTilePosition = newError("InvalidTilePosition", "invalid tile position in meld")
)

// Set and run semantic errors.
var (
	ErrInvalidSet            = newError("InvalidSet", "invalid set")
	ErrInvalidRun            = newError("InvalidRun", "invalid run")
	ErrDuplicateColorInSet   = newError("DuplicateColorInSet", "duplicate color in set")
	ErrSetMustHaveRealTile   = newError("SetMustHaveRealTile", "set must have at least one real tile to establish number")
	ErrTooManyJokersInSet    = newError("TooManyJokersInSet", "too many jokers in set")
	ErrRunMustHaveRealTile   = newError("RunMustHaveRealTile", "run must have at least one real tile to establish color")
	ErrDuplicateNumberInRun  = newError("DuplicateNumberInRun", "duplicate number in run")
	ErrInvalidJokerPlacement = newError("InvalidJokerPlacement", "invalid joker placement, jokers must fill gaps in sequence")
	ErrRunCannotWrap         = newError("RunCannotWrap", "run cannot wrap around, 1 is always low and cannot follow 13")
)

// Opening and table-economy errors.
var (
	ErrInitialMeldTooLow         = newError("InitialMeldTooLow", "initial meld must be at least 30 points")
	ErrInitialMeldCannotUseTable = newError("InitialMeldCannotUseTable", "initial meld cannot use or rearrange table tiles")
	ErrMustPreserveTableTiles    = newError("MustPreserveTableTiles", "rearrangement must preserve table tiles")
)

// Joker retrieval errors.
var (
	ErrCannotRetrieveJokerBeforeOpening = newError("CannotRetrieveJokerBeforeOpening", "cannot retrieve joker before completing initial meld")
	ErrNotAJoker                        = newError("NotAJoker", "tile at this position is not a joker")
	ErrInvalidJokerReplacement          = newError("InvalidJokerReplacement", "replacement tile does not match the value the joker represents")
	ErrMustPlayTileWithJoker            = newError("MustPlayTileWithJoker", "must play at least one tile from hand when retrieving a joker")
	ErrMustPlayRetrievedJoker           = newError("MustPlayRetrievedJoker", "retrieved joker must be played in the same turn")
)

// Settlement errors.
var (
	ErrGameNotFinished     = newError("GameNotFinished", "game not finished yet")
	ErrNotTheWinner        = newError("NotTheWinner", "not the winner")
	ErrPrizeAlreadyClaimed = newError("PrizeAlreadyClaimed", "prize already claimed")
	ErrInvalidGameState    = newError("InvalidGameState", "invalid game state")
)

// ErrorCode returns the stable code for an engine error, or "" for nil and
// non-engine errors.
func ErrorCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.code
	}
	return ""
}
