package entity

type Account struct {
	ID            int64
	Email         string
	FullName      string
	EmailVerified bool
	HasPassword   bool
}

// PasswordResetAllowed is true for verified emails and for accounts that were
// provisioned without a password.
func (a Account) PasswordResetAllowed() bool {
	return a.EmailVerified || !a.HasPassword
}
