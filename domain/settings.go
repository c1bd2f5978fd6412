package domain

// Settings is the singleton configuration row (id = 1). Theme holds the UI
// style configuration as an opaque JSON blob.
type Settings struct {
	ID               int64  `db:"id" json:"-"`
	CompanyName      string `db:"company_name" json:"company_name"`
	CompanyAddress   string `db:"company_address" json:"company_address"`
	CompanyEmail     string `db:"company_email" json:"company_email"`
	CompanyPhone     string `db:"company_phone" json:"company_phone"`
	CompanyTaxID     string `db:"company_tax_id" json:"company_tax_id"`
	Currency         string `db:"currency" json:"currency"`
	Theme            string `db:"theme" json:"-"`
	LicenseKey       string `db:"license_key" json:"-"`
	LicenseStatus    string `db:"license_status" json:"license_status"`
	Licensee         string `db:"licensee" json:"licensee,omitempty"`
	LicenseExpiresAt string `db:"license_expires_at" json:"license_expires_at,omitempty"`
	LicenseCheckedAt string `db:"license_checked_at" json:"license_checked_at,omitempty"`
}
