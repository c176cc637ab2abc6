package validation

const (
	// Password requirements
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores anything longer

	// DateLayout is the layout of calendar dates in requests and flags.
	DateLayout = "2006-01-02"

	// MaxRangeDays bounds range queries and backfills.
	MaxRangeDays = 5 * 366
)
