// Package setup is the interactive asset configuration wizard.
package setup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/voldca/config"
	"github.com/vadiminshakov/voldca/internal/domain"
)

const title = "VOLDCA ASSET WIZARD"

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

const (
	strategyRSI     = "rsi"
	strategyDip     = "moving_average"
	strategyDynamic = "dynamic_frequency"
)

// answers holds the raw wizard input.
type answers struct {
	symbol     string
	market     string
	base       string
	min        string
	max        string
	frequency  string
	window     string
	lowVol     string
	highVol    string
	strategies []string
}

func defaultAnswers() answers {
	return answers{
		base:      "50",
		min:       "25",
		max:       "100",
		frequency: string(domain.FrequencyWeekly),
		window:    "30",
		lowVol:    "35",
		highVol:   "85",
	}
}

func screen(step string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render(title))
	fmt.Println(stepStyle.Render(step))
}

// RunTUI walks through one asset and saves it to the config at path.
func RunTUI(path string) error {
	a := defaultAnswers()
	var confirm bool

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render(title))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Configure a volatility-adaptive DCA asset.\n"))

	fmt.Println(stepStyle.Render("STEP 1: ASSET"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Asset symbol").
				Description("Base asset to accumulate (e.g. BTC)").
				Value(&a.symbol).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("symbol cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Exchange market").
				Description("Order market name, empty to use the symbol (e.g. UBTC/USDC)").
				Value(&a.market),
		),
	).Run()
	if err != nil {
		return err
	}

	screen("STEP 2: AMOUNTS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Base amount").Description("Quote spent when volatility is unknown").
				Value(&a.base).Validate(validatePositive),
			huh.NewInput().Title("Min amount").Description("Spent in turbulent markets").
				Value(&a.min).Validate(validatePositive),
			huh.NewInput().Title("Max amount").Description("Spent in calm markets").
				Value(&a.max).Validate(validatePositive),
		),
	).Run()
	if err != nil {
		return err
	}

	screen("STEP 3: SCHEDULE AND VOLATILITY")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Purchase frequency").
				Options(
					huh.NewOption("Daily", string(domain.FrequencyDaily)),
					huh.NewOption("Weekly", string(domain.FrequencyWeekly)),
					huh.NewOption("Monthly", string(domain.FrequencyMonthly)),
				).
				Value(&a.frequency),
			huh.NewInput().Title("Volatility window (days)").Value(&a.window).Validate(validateInt),
			huh.NewInput().Title("Low volatility threshold %").Value(&a.lowVol).Validate(validatePositive),
			huh.NewInput().Title("High volatility threshold %").Value(&a.highVol).Validate(validatePositive),
		),
	).Run()
	if err != nil {
		return err
	}

	screen("STEP 4: STRATEGIES")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Optional indicator strategies").
				Options(
					huh.NewOption("RSI overbought filter", strategyRSI),
					huh.NewOption("Moving average dip boost", strategyDip),
					huh.NewOption("Dynamic frequency sizing", strategyDynamic),
				).
				Value(&a.strategies),
		),
	).Run()
	if err != nil {
		return err
	}

	screen("FINAL CONFIRMATION")
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(a.summary()))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save asset?").
				Affirmative("Yes, save").
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

	asset, err := config.Update(path, a.symbol, a.apply)
	if err != nil {
		return errors.Wrap(err, "asset rejected")
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(
		fmt.Sprintf("\n✓ %s saved to %s", asset.Symbol, path)))
	return nil
}

func (a answers) summary() string {
	strategies := "none"
	if len(a.strategies) > 0 {
		strategies = strings.Join(a.strategies, ", ")
	}
	return fmt.Sprintf(
		"Asset: %s\nAmounts: base %s, min %s, max %s\nFrequency: %s\nVolatility: window %s, low %s%%, high %s%%\nStrategies: %s\n",
		strings.ToUpper(a.symbol), a.base, a.min, a.max, a.frequency, a.window, a.lowVol, a.highVol, strategies,
	)
}

// apply writes the answers into the file entry, keeping fields the wizard does not ask about.
func (a answers) apply(f *config.AssetFile) {
	f.Market = strings.TrimSpace(a.market)
	f.BaseAmount = a.base
	f.MinAmount = a.min
	f.MaxAmount = a.max
	f.Frequency = a.frequency
	f.VolatilityWindow, _ = strconv.Atoi(a.window)
	f.LowVolThreshold = parseFloat(a.lowVol)
	f.HighVolThreshold = parseFloat(a.highVol)

	on := make(map[string]bool, len(a.strategies))
	for _, s := range a.strategies {
		on[s] = true
	}

	f.RSI = nil
	if on[strategyRSI] {
		f.RSI = &config.RSIFile{}
	}
	f.MovingAverage = nil
	if on[strategyDip] {
		f.MovingAverage = &config.MovingAverageFile{}
	}
	f.DynamicFrequency = nil
	if on[strategyDynamic] {
		f.DynamicFrequency = &config.DynamicFrequencyFile{}
	}
}

func validatePositive(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 2 {
		return fmt.Errorf("must be an integer of at least 2")
	}
	return nil
}

// parseFloat returns nil for input the form validators would have rejected.
func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}
