package main

import (
	"flag"
	"io"
	"os"

	"github.com/arhyth/atmgo"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	var cfg atmgo.Config
	cfp := flag.String("config", "config.yml", "path to configuration file")
	flag.Parse()
	cfgfl, err := os.Open(*cfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error opening config file")
	}
	if err = yaml.NewDecoder(cfgfl).Decode(&cfg); err != nil {
		logger.Fatal().Err(err).Msg("error decoding config file")
	}
	cfgfl.Close()

	// With a menu on stdout, logs go to a file unless configured otherwise.
	var logw io.Writer = os.Stderr
	if cfg.LogFile != "" {
		logfl, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Fatal().Err(err).Msg("error opening log file")
		}
		defer logfl.Close()
		logw = logfl
	}
	logger = zerolog.New(logw).With().Timestamp().Logger()

	cashFloat := parseAmount(&logger, cfg.ATM.CashFloat, "cash_float", "5000.00")
	dailyLimit := parseAmount(&logger, cfg.ATM.DailyLimit, "daily_withdrawal_limit", "1000.00")

	store, err := atmgo.NewAccountStore(dailyLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting account store")
	}
	reserve := atmgo.NewCashReserve(cashFloat)

	svcOpts := []atmgo.Option{}
	if cfg.ATM.MachineID != "" {
		svcOpts = append(svcOpts, atmgo.WithMachineID(cfg.ATM.MachineID))
	}
	svc, err := atmgo.NewService(store, reserve, &logger, svcOpts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting service")
	}
	wired := atmgo.NewValidationMiddleware()(svc)

	for _, seed := range cfg.Seed {
		bal := parseAmount(&logger, seed.Balance, "seed balance", "0")
		acct, err := wired.CreateAccount(atmgo.CreateAccountReq{
			Name:           seed.Name,
			PIN:            seed.PIN,
			InitialBalance: bal,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("name", seed.Name).Msg("error seeding account")
		}
		logger.Info().
			Str("name", seed.Name).
			Str("acct", acct.AcctNum).
			Str("card", acct.CardNum).
			Msg("seeded account")
	}

	adminPIN := cfg.ATM.AdminPIN
	if adminPIN == "" {
		adminPIN = "1234"
	}
	quick := make([]decimal.Decimal, 0, len(cfg.ATM.QuickAmounts))
	for _, qa := range cfg.ATM.QuickAmounts {
		quick = append(quick, parseAmount(&logger, qa, "quick amount", "20"))
	}

	term := atmgo.NewTerminal(wired, atmgo.TerminalConfig{
		MachineID:    cfg.ATM.MachineID,
		AdminPIN:     adminPIN,
		QuickAmounts: quick,
		ReceiptsDir:  cfg.ATM.ReceiptsDir,
	}, &logger)
	if err := term.Run(); err != nil {
		logger.Fatal().Err(err).Msg("session loop failed")
	}
}

func parseAmount(logger *zerolog.Logger, raw, field, fallback string) decimal.Decimal {
	if raw == "" {
		raw = fallback
	}
	amt, err := decimal.NewFromString(raw)
	if err != nil {
		logger.Fatal().Err(err).Str("field", field).Msg("error parsing amount")
	}
	return amt
}
