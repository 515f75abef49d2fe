// Package idle watches user inactivity and pauses a running focus phase
// when the user walks away, so absent time is never counted as focus.
package idle

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"
)

// ErrUnsupported indicates idle detection is not available on this
// system. Callers disable the watcher and move on.
var ErrUnsupported = errors.New("idle detection unsupported")

// Checker reports the duration of user inactivity.
type Checker interface {
	IdleDuration() (time.Duration, error)
	Close() error
}

type x11Checker struct {
	conn *xgb.Conn
	root xproto.Window
}

// NewChecker connects to the X server and queries the MIT-SCREEN-SAVER
// extension for time since last input. Wayland sessions without an X
// bridge report ErrUnsupported.
func NewChecker() (Checker, error) {
	if strings.ToLower(os.Getenv("XDG_SESSION_TYPE")) == "wayland" && os.Getenv("DISPLAY") == "" {
		return nil, ErrUnsupported
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	if err := screensaver.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	return &x11Checker{conn: conn, root: screen.Root}, nil
}

func (c *x11Checker) IdleDuration() (time.Duration, error) {
	reply, err := screensaver.QueryInfo(c.conn, xproto.Drawable(c.root)).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to query idle info: %w", err)
	}
	return time.Duration(reply.MsSinceUserInput) * time.Millisecond, nil
}

func (c *x11Checker) Close() error {
	c.conn.Close()
	return nil
}
