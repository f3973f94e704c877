package atmgo

// Config is the machine's boot configuration. Monetary values are decimal
// strings; cmd/atm parses them before wiring the engine.
type Config struct {
	ATM struct {
		MachineID    string   `yaml:"machine_id"`
		CashFloat    string   `yaml:"cash_float"`
		DailyLimit   string   `yaml:"daily_withdrawal_limit"`
		AdminPIN     string   `yaml:"admin_pin"`
		QuickAmounts []string `yaml:"quick_amounts"`
		ReceiptsDir  string   `yaml:"receipts_dir"`
	} `yaml:"atm"`
	LogFile string        `yaml:"log_file"`
	Seed    []SeedAccount `yaml:"seed_accounts"`
}

// SeedAccount pre-creates a demo account at boot so a fresh simulator has
// cards to log in with.
type SeedAccount struct {
	Name    string `yaml:"name"`
	PIN     string `yaml:"pin"`
	Balance string `yaml:"balance"`
}
