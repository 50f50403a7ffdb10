package domain

// Principal kinds, used as the discriminator in session and pending-auth
// records.
const (
	PrincipalUser  = "user"
	PrincipalAdmin = "admin"
)

// Principal is the capability view the login processor operates on. Both
// portal users and internal admins satisfy it; the processor never inspects
// the concrete type.
type Principal interface {
	// PrincipalID is the stable id of the underlying account.
	PrincipalID() string
	// Kind is PrincipalUser or PrincipalAdmin.
	Kind() string
	// DisplayEmail is the account email, used for MFA labels and audit.
	DisplayEmail() string
	// IsActive reports whether the account may authenticate at all.
	IsActive() bool
	// IsPrivileged reports whether the account carries elevated access.
	IsPrivileged() bool
	// RequiresMandatoryMFA reports whether login must never finalize
	// without a second factor, even before enrollment.
	RequiresMandatoryMFA() bool
	// CompanyRef is the owning company id, or "" for accounts not scoped
	// to a tenant.
	CompanyRef() string
	// Credential returns the local credential record backing the account.
	Credential() *Credential
}

// UserPrincipal adapts a local-auth portal user to Principal.
type UserPrincipal struct {
	User *User
	Cred *Credential
}

func (p *UserPrincipal) PrincipalID() string        { return p.User.ID }
func (p *UserPrincipal) Kind() string               { return PrincipalUser }
func (p *UserPrincipal) DisplayEmail() string       { return p.User.Email }
func (p *UserPrincipal) IsActive() bool             { return p.User.Active }
func (p *UserPrincipal) IsPrivileged() bool         { return false }
func (p *UserPrincipal) RequiresMandatoryMFA() bool { return false }
func (p *UserPrincipal) CompanyRef() string         { return p.User.CompanyID }
func (p *UserPrincipal) Credential() *Credential    { return p.Cred }

// AdminPrincipal adapts an internal admin to Principal.
type AdminPrincipal struct {
	Admin *AdminUser
	Cred  *Credential
}

func (p *AdminPrincipal) PrincipalID() string        { return p.Admin.ID }
func (p *AdminPrincipal) Kind() string               { return PrincipalAdmin }
func (p *AdminPrincipal) DisplayEmail() string       { return p.Admin.Email }
func (p *AdminPrincipal) IsActive() bool             { return p.Admin.Active }
func (p *AdminPrincipal) IsPrivileged() bool         { return true }
func (p *AdminPrincipal) RequiresMandatoryMFA() bool { return true }
func (p *AdminPrincipal) CompanyRef() string         { return "" }
func (p *AdminPrincipal) Credential() *Credential    { return p.Cred }
