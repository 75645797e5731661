package model

// Strategy selects how a directory batch is executed.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategySequential || s == StrategyParallel
}

// Action labels the kind of rename recorded in the audit log.
type Action string

const (
	ActionSingleFile    Action = "Shifted Single File"
	ActionDirectoryFile Action = "Shifted Directory File"
)
