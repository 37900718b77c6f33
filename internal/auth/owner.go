package auth

// AssertOwner returns ErrNotAuthorized unless principal is present and its
// subject equals owner.
func AssertOwner(owner string, principal *Principal) error {
	if principal == nil || principal.Subject == "" || principal.Subject != owner {
		return ErrNotAuthorized
	}
	return nil
}
