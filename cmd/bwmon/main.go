package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"go.bug.st/serial"

	"github.com/fudanchii/humanbw"
	"github.com/fudanchii/humanbw/internal/display"
	"github.com/fudanchii/humanbw/internal/kickstart"
	"github.com/fudanchii/humanbw/internal/netrate"
)

const cmdPrompt = "$>:"

type configStruct struct {
	interval  time.Duration
	iface     string
	serialDev string
	baudRate  int
	precision int
	itemized  bool
	styles    string
}

var (
	config = configStruct{}
	log    = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

func init() {
	flag.DurationVar(&config.interval, "interval", time.Second, "Sampling interval.")
	flag.StringVar(&config.iface, "iface", "", "Only watch this interface.")
	flag.StringVar(&config.serialDev, "serial", "", "Serial device of the LCD; log to stdout when empty.")
	flag.IntVar(&config.baudRate, "baud", 115200, "Baudrate for the serial line.")
	flag.IntVar(&config.precision, "precision", -1, "Fractional digits per rate; -1 keeps them all.")
	flag.BoolVar(&config.itemized, "itemized", false, "Render rates itemized per unit instead of decimal.")
	flag.StringVar(&config.styles, "styles", "t,m,m,t", "LCD overflow style per line, t (trim) or m (marquee).")
}

type AppHandler struct {
	sampler *netrate.Sampler
	tty     serial.Port
	scanner *bufio.Scanner
	frame   *display.Frame
}

func main() {
	err := kickstart.Init(setupFn).
		Loop(runFn).
		Shutdown(shutdownFn).
		Exec()

	if err != nil {
		log.Fatal().Err(err).Msg("bwmon stopped")
	}
}

func setupFn(kctx *kickstart.Context[AppHandler]) error {
	flag.Parse()

	sampler, err := netrate.NewSampler(config.iface)
	if err != nil {
		return err
	}
	kctx.App.sampler = sampler

	if config.serialDev == "" {
		return nil
	}

	tty, err := serial.Open(config.serialDev, &serial.Mode{BaudRate: config.baudRate})
	if err != nil {
		return err
	}

	styles, err := display.ParseStyles(config.styles)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(tty)
	scanner.Split(bufio.ScanWords)

	kctx.App.tty = tty
	kctx.App.scanner = scanner
	kctx.App.frame = display.NewFrame(styles)

	return kctx.App.frame.SetLine(0, "bwmon")
}

func runFn(kctx *kickstart.Context[AppHandler]) error {
	time.Sleep(config.interval)

	app := &kctx.App
	if err := app.sampler.Update(); err != nil {
		return err
	}

	if app.tty == nil {
		logRates(app.sampler)
		return nil
	}
	return refreshDisplay(app)
}

func shutdownFn(kctx *kickstart.Context[AppHandler]) error {
	totals := kctx.App.sampler.Totals()
	log.Info().
		Str("rx", humanize.IBytes(totals.RxBytes)).
		Str("tx", humanize.IBytes(totals.TxBytes)).
		Msg("total traffic")

	if kctx.App.tty != nil {
		kctx.App.tty.Write([]byte("clr\n"))
		return kctx.App.tty.Close()
	}
	return nil
}

func logRates(sampler *netrate.Sampler) {
	rates := sampler.Rates()

	names := make([]string, 0, len(rates))
	for name := range rates {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := rates[name]
		log.Info().
			Str("iface", name).
			Str("rx", renderBandwidth(r.Rx)).
			Str("tx", renderBandwidth(r.Tx)).
			Msg("sample")
	}
}

func refreshDisplay(app *AppHandler) error {
	rate, totalRx, totalTx := summarize(app.sampler)

	app.frame.SetLine(1, "rx "+renderBandwidth(rate.Rx))
	app.frame.SetLine(2, "tx "+renderBandwidth(rate.Tx))
	app.frame.SetLine(3, fmt.Sprintf("%s/%s", humanize.IBytes(totalRx), humanize.IBytes(totalTx)))

	if app.scanner.Scan() && app.scanner.Text() == cmdPrompt {
		cmd := fmt.Sprintf("display:%s\n", app.frame.Next())
		if _, err := app.tty.Write([]byte(cmd)); err != nil {
			return err
		}
	}
	return nil
}

// summarize folds all watched interfaces into one rate for the LCD.
func summarize(sampler *netrate.Sampler) (netrate.Rate, uint64, uint64) {
	var (
		rxBps, txBps uint64
	)
	for _, r := range sampler.Rates() {
		if bps, ok := r.Rx.TotalBps(); ok {
			rxBps += bps
		}
		if bps, ok := r.Tx.TotalBps(); ok {
			txBps += bps
		}
	}
	totals := sampler.Totals()
	rate := netrate.Rate{
		Rx: humanbw.FromBps(rxBps),
		Tx: humanbw.FromBps(txBps),
	}
	return rate, totals.RxBytes, totals.TxBytes
}

func renderBandwidth(bw humanbw.Bandwidth) string {
	formatted := humanbw.FormatBinaryBandwidth(bw)
	if config.itemized {
		return formatted.WithMode(humanbw.DisplayItemized).String()
	}
	if config.precision >= 0 {
		return fmt.Sprintf("%.*v", config.precision, formatted)
	}
	return formatted.String()
}
