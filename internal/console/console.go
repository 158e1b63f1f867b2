// Package console drives a session from a line-oriented command stream.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/hieroglyph-annotator/internal/utils"
	"github.com/menta2k/hieroglyph-annotator/pkg/processing"
	"github.com/menta2k/hieroglyph-annotator/pkg/session"
)

// ErrQuit is returned by Exec for the quit command
var ErrQuit = errors.New("quit")

const helpText = `commands:
  down x y [ctrl] [middle]   press the pointer
  move x y                   move the pointer with the button held
  up x y                     release the pointer
  click x y                  press and release
  drag x1 y1 x2 y2 [ctrl]    press, move and release
  scroll n                   wheel notches, positive zooms in
  key name | name            ` + "%s" + `
  category code              select the label for saved crops
  search text                list matching taxonomy entries
  resize w h                 change the viewport size
  render file.png            write the current view
  output                     show the folder crops are saved to
  status                     show the session state
  help                       show this text
  quit                       leave`

// Console reads commands and applies them to a session
type Console struct {
	session   *session.Session
	processor *processing.Processor
	out       io.Writer
	logger    zerolog.Logger

	// pointer state carried between down/move/up
	buttons   session.Buttons
	modifiers session.Modifiers
}

// New creates a console writing replies to out
func New(s *session.Session, out io.Writer) *Console {
	return &Console{
		session:   s,
		processor: processing.NewProcessor(),
		out:       out,
		logger:    log.With().Str("module", "console").Logger(),
	}
}

// SetLogger replaces the console logger
func (c *Console) SetLogger(l zerolog.Logger) {
	c.logger = l
}

// Run executes commands from r until quit or end of input. Recoverable
// errors are reported and the loop goes on; a fatal session error stops it
// and is returned.
func (c *Console) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		err := c.Exec(scanner.Text())
		switch {
		case err == nil:
		case errors.Is(err, ErrQuit):
			return nil
		case session.IsFatal(err):
			fmt.Fprintf(c.out, "fatal: %v\n", err)
			return err
		default:
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

// Exec runs one command line. Blank lines and lines starting with # are ignored.
func (c *Console) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	c.logger.Debug().Str("command", cmd).Strs("args", args).Msg("exec")

	// bare "up" and "down" are the arrow keys
	if (cmd == "up" || cmd == "down") && len(args) == 0 {
		return c.key(cmd)
	}

	switch cmd {
	case "down":
		return c.pointer(args)
	case "move":
		x, y, _, err := parsePoint(args)
		if err != nil {
			return err
		}
		return c.session.PointerMove(c.event(x, y))
	case "up":
		x, y, _, err := parsePoint(args)
		if err != nil {
			return err
		}
		err = c.session.PointerUp(c.event(x, y))
		c.buttons, c.modifiers = 0, 0
		return err
	case "click":
		if err := c.pointer(args); err != nil {
			return err
		}
		return c.Exec("up " + strings.Join(args[:2], " "))
	case "drag":
		return c.drag(args)
	case "scroll":
		if len(args) != 1 {
			return fmt.Errorf("usage: scroll n")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid scroll amount %q", args[0])
		}
		c.session.Scroll(n)
		return nil
	case "key":
		if len(args) != 1 {
			return fmt.Errorf("usage: key name")
		}
		return c.key(args[0])
	case "category":
		if len(args) != 1 {
			return fmt.Errorf("usage: category code")
		}
		if err := c.session.SelectCategory(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "category %s %s\n", c.session.Category(), c.session.Taxonomy().Describe(c.session.Category()))
		return nil
	case "search":
		for _, e := range c.session.Taxonomy().Search(strings.Join(args, " ")) {
			fmt.Fprintln(c.out, e.String())
		}
		return nil
	case "resize":
		if len(args) != 2 {
			return fmt.Errorf("usage: resize w h")
		}
		w, err1 := strconv.Atoi(args[0])
		h, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return fmt.Errorf("invalid size %s %s", args[0], args[1])
		}
		return c.session.Resize(w, h)
	case "render":
		if len(args) != 1 {
			return fmt.Errorf("usage: render file.png")
		}
		if err := c.processor.SaveImage(c.session.Render(), args[0]); err != nil {
			return fmt.Errorf("failed to write view: %w", err)
		}
		fmt.Fprintf(c.out, "rendered %s\n", args[0])
		return nil
	case "output":
		dir, err := c.session.OutputDir()
		if err != nil {
			return err
		}
		if utils.DirExists(dir) {
			fmt.Fprintf(c.out, "output %s\n", dir)
		} else {
			fmt.Fprintf(c.out, "output %s (not created yet)\n", dir)
		}
		return nil
	case "status":
		fmt.Fprintln(c.out, c.session.Status().String())
		return nil
	case "help":
		fmt.Fprintf(c.out, helpText+"\n", strings.Join(session.KeyNames(), ", "))
		return nil
	case "quit", "q", "exit":
		return ErrQuit
	default:
		return c.key(cmd)
	}
}

func (c *Console) key(name string) error {
	if strings.EqualFold(name, session.KeySave) || strings.EqualFold(name, "s") {
		report, err := c.session.Save()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "saved %d skipped %d under %s\n", report.Saved, report.Skipped, report.Category)
		for _, p := range report.Paths {
			fmt.Fprintf(c.out, "  %s\n", p)
		}
		return nil
	}
	return c.session.Key(name)
}

// pointer presses the button selected by the trailing flags
func (c *Console) pointer(args []string) error {
	x, y, flags, err := parsePoint(args)
	if err != nil {
		return err
	}

	c.buttons, c.modifiers = session.ButtonPrimary, 0
	for _, f := range flags {
		switch strings.ToLower(f) {
		case "ctrl":
			c.modifiers |= session.ModCtrl
		case "shift":
			c.modifiers |= session.ModShift
		case "middle":
			c.buttons = session.ButtonMiddle
		default:
			return fmt.Errorf("unknown pointer flag %q", f)
		}
	}
	return c.session.PointerDown(c.event(x, y))
}

func (c *Console) drag(args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: drag x1 y1 x2 y2 [ctrl]")
	}
	x1, y1, err := parseXY(args[0], args[1])
	if err != nil {
		return err
	}
	x2, y2, err := parseXY(args[2], args[3])
	if err != nil {
		return err
	}

	if err := c.pointer(append([]string{args[0], args[1]}, args[4:]...)); err != nil {
		return err
	}
	if err := c.session.PointerMove(c.event((x1+x2)/2, (y1+y2)/2)); err != nil {
		return err
	}
	err = c.session.PointerUp(c.event(x2, y2))
	c.buttons, c.modifiers = 0, 0
	return err
}

func (c *Console) event(x, y float64) session.PointerEvent {
	return session.PointerEvent{X: x, Y: y, Buttons: c.buttons, Modifiers: c.modifiers}
}

func parsePoint(args []string) (x, y float64, flags []string, err error) {
	if len(args) < 2 {
		return 0, 0, nil, fmt.Errorf("expected x and y")
	}
	x, y, err = parseXY(args[0], args[1])
	return x, y, args[2:], err
}

func parseXY(xs, ys string) (float64, float64, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid coordinate %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid coordinate %q", ys)
	}
	return x, y, nil
}
