package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MikeMC777/storefront/internal/catalog"
)

const browseHelp = `Commands:
  search <query>   search by product name, stock (<= 1000) or price (> 1000)
  search           clear the search
  next, prev       move one page
  page <n>         jump to page n
  limit <n>        change items per page (%s)
  retry            reload the current page
  logout           end the session and quit
  quit             leave
`

func runBrowse(a *app, args []string) error {
	fs := a.flags("browse")
	if ok, err := a.parse(fs, args); !ok {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}
	defer a.close()

	if err := a.requireSession(); err != nil {
		return err
	}
	c, err := a.newCatalog(a.cfg.ItemsPerPage)
	if err != nil {
		return err
	}
	defer c.Close()

	b := &browser{app: a, c: c}
	b.do(c.Start)
	return b.loop(a.in)
}

type browser struct {
	*app
	c   *catalog.Controller
	err error
}

func (b *browser) loop(in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(b.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(b.out)
			return sc.Err()
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "":
		case "help", "?":
			fmt.Fprintf(b.out, browseHelp, sizesText(b.c.PageSizes()))
		case "quit", "exit", "q":
			return nil
		case "logout":
			if err := b.sess.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(b.out, "Logged out")
			return nil
		case "search", "s":
			b.gated(func() { b.c.Search(arg) })
		case "next", "n":
			b.gated(b.c.NextPage)
		case "prev", "p":
			b.gated(b.c.PreviousPage)
		case "retry", "r":
			b.gated(b.c.Retry)
		case "page":
			n, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintf(b.out, "page: %q is not a number\n", arg)
				continue
			}
			b.gatedErr(func() error { return b.c.GoToPage(n) })
		case "limit":
			n, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintf(b.out, "limit: %q is not a number\n", arg)
				continue
			}
			b.gatedErr(func() error { return b.c.SetItemsPerPage(n) })
		default:
			fmt.Fprintf(b.out, "unknown command %q, type help\n", cmd)
		}
		if b.err != nil {
			return b.err
		}
	}
}

// gated runs fn only while the stored session is still valid.
func (b *browser) gated(fn func()) {
	b.gatedErr(func() error { fn(); return nil })
}

func (b *browser) gatedErr(fn func() error) {
	b.err = b.requireSession()
	if b.err != nil {
		return
	}
	var cerr *catalog.ConfigError
	before := b.c.State().Version
	if err := fn(); err != nil {
		if errors.As(err, &cerr) {
			fmt.Fprintln(b.out, err)
			return
		}
		b.err = err
		return
	}
	if b.c.State().Version == before {
		fmt.Fprintln(b.out, "(unchanged)")
		return
	}
	b.wait()
}

func (b *browser) do(fn func()) {
	fn()
	b.wait()
}

func (b *browser) wait() {
	if b.c.State().Loading {
		fmt.Fprintln(b.out, "Loading...")
	}
	st, err := b.c.Wait(context.Background())
	if err != nil {
		fmt.Fprintln(b.out, err)
		return
	}
	render(b.out, st)
}

func sizesText(sizes []int) string {
	parts := make([]string, len(sizes))
	for i, n := range sizes {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
