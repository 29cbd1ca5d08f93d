package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MikeMC777/storefront/internal/catalog"
	"github.com/MikeMC777/storefront/internal/session"
)

func runLogin(a *app, args []string) error {
	var email, password string
	fs := a.flags("login")
	fs.StringVarP(&email, "email", "e", "", "account email")
	fs.StringVarP(&password, "password", "p", "", "account password (read from stdin when omitted)")
	if ok, err := a.parse(fs, args); !ok {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}
	defer a.close()

	r := bufio.NewReader(a.in)
	if email == "" {
		email = prompt(a.out, r, "Email: ")
	}
	if password == "" {
		password = prompt(a.out, r, "Password: ")
	}
	if email == "" || password == "" {
		return usageError("email and password are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.RequestTimeout)
	defer cancel()
	if err := a.sess.Login(ctx, email, password); err != nil {
		var ae *session.AuthError
		if errors.As(err, &ae) {
			return &exitError{code: 1, msg: ae.Message}
		}
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", a.sess.User().Name())
	return nil
}

func prompt(w io.Writer, r *bufio.Reader, label string) string {
	fmt.Fprint(w, label)
	line, _ := r.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func runLogout(a *app, args []string) error {
	fs := a.flags("logout")
	if ok, err := a.parse(fs, args); !ok {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}
	defer a.close()

	if err := a.sess.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func runWhoami(a *app, args []string) error {
	fs := a.flags("whoami")
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
	u := a.sess.User()
	fmt.Fprintf(a.out, "User:    %s\n", u.Name())
	if u.Email != "" {
		fmt.Fprintf(a.out, "Email:   %s\n", u.Email)
	}
	if u.ExpiresAt != nil {
		fmt.Fprintf(a.out, "Expires: %s\n", u.ExpiresAt.Time.Local().Format(time.RFC3339))
	}
	return nil
}

func runShops(a *app, args []string) error {
	var (
		query string
		page  int
		limit int
	)
	fs := a.flags("shops")
	fs.StringVarP(&query, "query", "q", "", "product name, stock (<= 1000) or price (> 1000)")
	fs.IntVar(&page, "page", 1, "page number")
	fs.IntVar(&limit, "limit", 0, "items per page (default $STOREFRONT_ITEMS_PER_PAGE)")
	if ok, err := a.parse(fs, args); !ok {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}
	defer a.close()

	if limit == 0 {
		limit = a.cfg.ItemsPerPage
	}
	c, err := a.newCatalog(limit)
	if err != nil {
		return usageError("%v", err)
	}
	defer c.Close()
	if page < 1 {
		return usageError("invalid page %d: must be at least 1", page)
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	ctx := context.Background()
	c.Search(query)
	if c.State().Status == catalog.StatusIdle {
		c.Start()
	}
	st, err := c.Wait(ctx)
	if err != nil {
		return err
	}
	if page > 1 && st.Err == nil {
		if err := c.GoToPage(page); err != nil {
			return usageError("%v", err)
		}
		if st, err = c.Wait(ctx); err != nil {
			return err
		}
	}

	render(a.out, st)
	if st.Err != nil {
		return &exitError{code: 1}
	}
	return nil
}
