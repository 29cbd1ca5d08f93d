package main

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MikeMC777/storefront/internal/catalog"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// formatIDR renders a price the way id-ID currency formatting does, with no
// fractional digits: 450000 => "Rp 450.000".
func formatIDR(d decimal.Decimal) string {
	n := d.Round(0)
	sign := ""
	if n.IsNegative() {
		sign = "-"
	}
	return sign + idPrinter.Sprintf("Rp %d", n.Abs().IntPart())
}

// render writes the settled catalog state: one card per shop showing its
// first product, followed by the pager line.
func render(w io.Writer, st catalog.State) {
	switch {
	case st.Err != nil:
		fmt.Fprintln(w, st.Message())
		return
	case len(st.Shops) == 0:
		fmt.Fprintln(w, "No Products Found")
		return
	}
	for _, shop := range st.Shops {
		renderCard(w, shop)
	}
	fmt.Fprintf(w, "Page %d of %d (%d per page, %d shops)\n",
		st.Page, max(st.TotalPages, 1), st.ItemsPerPage, st.TotalItems)
}

func renderCard(w io.Writer, shop catalog.Shop) {
	if len(shop.Products) == 0 {
		fmt.Fprintf(w, "- %s\n    (no products)\n", shop.Name)
		return
	}
	p := shop.Products[0]
	fmt.Fprintf(w, "- %s\n", p.Name)
	fmt.Fprintf(w, "    %s\n", formatIDR(p.Price))
	fmt.Fprintf(w, "    in stock : %d\n", p.Stock)
	if shop.Name != "" {
		fmt.Fprintf(w, "    shop : %s\n", shop.Name)
	}
}
