package behaviors

import "errors"

// ErrOverallDeadlineExceeded names the case of the runner's overall deadline
// elapsing before all behaviors finish. Runner.Run does not return it; Run
// reports that case only through BehaviorStats.Truncated.
var ErrOverallDeadlineExceeded = errors.New("behavior runner overall deadline exceeded")
