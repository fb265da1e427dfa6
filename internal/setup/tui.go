package setup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// generatedConfig is the YAML shape written by the wizard; it matches what
// the config loader reads back.
type generatedConfig struct {
	Platform     string        `yaml:"platform"`
	Symbol       string        `yaml:"symbol"`
	Fast         int           `yaml:"fast"`
	Slow         int           `yaml:"slow"`
	Qty          string        `yaml:"qty"`
	DryRun       bool          `yaml:"dry_run"`
	MaxDDPct     string        `yaml:"max_dd_pct"`
	PollInterval time.Duration `yaml:"poll_interval"`
	BarInterval  string        `yaml:"bar_interval"`
}

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		platform        string
		pair            string
		barInterval     string
		pollIntervalStr string
		fastStr         string
		slowStr         string
		qtyStr          string
		maxDDStr        string
		dryRun          bool
		confirm         bool
	)

	// defaults
	pair = "BTC_USDT"
	pollIntervalStr = "15s"
	fastStr = "10"
	slowStr = "20"
	qtyStr = "0.001"
	maxDDStr = "0.05"
	dryRun = true

	// step 1: welcome
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("CROSSMA CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's get your crossover bot set up.\n"))

	// platform
	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	// pair
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CROSSMA CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: ASSET"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Pair").
				Description("Must contain underscore (e.g. BTC_USDT)").
				Value(&pair).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("pair cannot be empty")
					}
					if !containsUnderscore(s) {
						return fmt.Errorf("invalid format: must be BASE_QUOTE (e.g. BTC_USDT)")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// timing
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CROSSMA CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Bar Interval").
				Options(
					huh.NewOption("1 minute", "1m"),
					huh.NewOption("5 minutes", "5m"),
					huh.NewOption("15 minutes", "15m"),
					huh.NewOption("1 hour", "1h"),
					huh.NewOption("1 day", "1d"),
				).
				Value(&barInterval),
			huh.NewInput().
				Title("Poll Interval").
				Description("Duration string (e.g. 15s, 1m, 5m)").
				Value(&pollIntervalStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// signal settings
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CROSSMA CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: SIGNAL"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Fast SMA Period").
				Description("Must be shorter than the slow period").
				Value(&fastStr).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Slow SMA Period").
				Value(&slowStr).
				Validate(validatePositiveInt),
		),
	).Run()
	if err != nil {
		return err
	}

	fast, _ := strconv.Atoi(fastStr)
	slow, _ := strconv.Atoi(slowStr)
	if fast >= slow {
		return fmt.Errorf("fast period %d must be shorter than slow period %d", fast, slow)
	}

	// risk settings
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CROSSMA CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: RISK"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Order Quantity").
				Description("Base asset amount per buy (e.g. 0.001)").
				Value(&qtyStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Max Drawdown").
				Description("Fraction of peak equity that trips the auto-pause (e.g. 0.05)").
				Value(&maxDDStr).
				Validate(validateDrawdown),
			huh.NewConfirm().
				Title("Dry Run?").
				Description("Log decisions without sending orders").
				Value(&dryRun),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("CROSSMA CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Platform: %s\nPair: %s\nSMA: %s/%s on %s bars\nQty: %s\nMax DD: %s\nDry run: %v\nPoll: %s\n",
		platform, pair, fastStr, slowStr, barInterval, qtyStr, maxDDStr, dryRun, pollIntervalStr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	pollInterval, _ := time.ParseDuration(pollIntervalStr)

	cfg := generatedConfig{
		Platform:     platform,
		Symbol:       pair,
		Fast:         fast,
		Slow:         slow,
		Qty:          qtyStr,
		DryRun:       dryRun,
		MaxDDPct:     maxDDStr,
		PollInterval: pollInterval,
		BarInterval:  barInterval,
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting bot...", filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validatePositiveDecimal(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateDrawdown(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("must be between 0 and 1 exclusive")
	}
	return nil
}

func containsUnderscore(s string) bool {
	for _, r := range s {
		if r == '_' {
			return true
		}
	}
	return false
}
