package config

import "fmt"

// Selectors locate the page elements the bot drives.
// Values are CSS selectors unless they use the text=Foo or tag:text('Foo')
// forms understood by the browser package.
type Selectors struct {
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	LoginButton string `yaml:"login_button,omitempty"`
	FirstName   string `yaml:"first_name,omitempty"`
	LastName    string `yaml:"last_name,omitempty"`
	SalesTarget string `yaml:"sales_target,omitempty"`
	SalesResult string `yaml:"sales_result,omitempty"`
	Submit      string `yaml:"submit,omitempty"`
	Results     string `yaml:"results,omitempty"`
	Logout      string `yaml:"logout,omitempty"`
}

// DefaultSelectors returns the selectors for the RobotSpareBin intranet.
func DefaultSelectors() Selectors {
	return Selectors{
		Username:    "#username",
		Password:    "#password",
		LoginButton: "button:text('Log in')",
		FirstName:   "#firstname",
		LastName:    "#lastname",
		SalesTarget: "#salestarget",
		SalesResult: "#salesresult",
		Submit:      "text=Submit",
		Results:     "#sales-results",
		Logout:      "text=Log out",
	}
}

// Validate reports the first empty selector.
func (s Selectors) Validate() error {
	for _, f := range s.fields() {
		if *f.value == "" {
			return fmt.Errorf("%w: %s", ErrEmptySelector, f.name)
		}
	}
	return nil
}

// Merge overrides s with every non-empty selector in other.
func (s *Selectors) Merge(other Selectors) {
	theirs := other.fields()
	for i, f := range s.fields() {
		if v := *theirs[i].value; v != "" {
			*f.value = v
		}
	}
}

type selectorField struct {
	name  string
	value *string
}

func (s *Selectors) fields() []selectorField {
	return []selectorField{
		{"username", &s.Username},
		{"password", &s.Password},
		{"login_button", &s.LoginButton},
		{"first_name", &s.FirstName},
		{"last_name", &s.LastName},
		{"sales_target", &s.SalesTarget},
		{"sales_result", &s.SalesResult},
		{"submit", &s.Submit},
		{"results", &s.Results},
		{"logout", &s.Logout},
	}
}
