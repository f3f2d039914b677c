package model

// Profile mirrors the profiles table. HasPremiumCalendar is the entitlement
// for calendar purchases; FullName/Mobile are refreshed at checkout from the
// buyer info the client submits.
type Profile struct {
	ID                 string // UUID, same as the auth user id
	FullName           string
	Mobile             string
	HasPremiumCalendar bool
}
