package user

// User is one member record in the users collection. Records are created by
// the registration collaborator; this service only mutates XP totals and the
// owned item set.
type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
	XP       int      `json:"xp"`
	WeeklyXP int      `json:"weeklyXp"`
	Avatar   *string  `json:"avatar,omitempty"`
	Owned    []string `json:"owned"`
}

// Normalize fills the defaults a persisted document may omit: negative XP
// totals are clamped to zero and a nil owned list becomes an empty set.
// Stores apply it after every load so business logic never sees missing
// fields.
func (u *User) Normalize() {
	if u.XP < 0 {
		u.XP = 0
	}
	if u.WeeklyXP < 0 {
		u.WeeklyXP = 0
	}
	if u.Owned == nil {
		u.Owned = []string{}
	}
}

// Owns reports whether the user already holds the given item id.
func (u User) Owns(itemID string) bool {
	for _, id := range u.Owned {
		if id == itemID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand across store boundaries.
func (u User) Clone() User {
	dup := u
	if u.Owned != nil {
		dup.Owned = append([]string(nil), u.Owned...)
	}
	if u.Avatar != nil {
		avatar := *u.Avatar
		dup.Avatar = &avatar
	}
	return dup
}

// CloneAll deep-copies a whole user collection, preserving order.
func CloneAll(users []User) []User {
	result := make([]User, 0, len(users))
	for _, u := range users {
		result = append(result, u.Clone())
	}
	return result
}
