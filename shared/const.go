package shared

const (
	IdentityKey = "identity"
	UserID      = "user_id"

	KindRegistered = "registered"
	KindGuest      = "guest"

	RoleStudent = "student"

	AnonymousName = "Anonymous"

	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)
