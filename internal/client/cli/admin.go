package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
)

// Import drives the bulk importer: start <category>, status, stop or seed.
func (a *App) Import(ctx context.Context, args []string) error {
	const usage = "import start <category>|status|stop|seed"
	if len(args) == 0 {
		return usageError(usage)
	}

	switch args[0] {
	case "start":
		if len(args) != 2 {
			return usageError(usage)
		}
		if _, err := models.ParseCategory(args[1]); err != nil {
			return err
		}
		reply, started, err := a.api.StartImport(ctx, args[1])
		if err != nil {
			return err
		}
		if started {
			fmt.Fprintf(a.out, "import of %s started\n", args[1])
		} else {
			fmt.Fprintln(a.out, "another import is running")
		}
		a.printProgress(reply.Status)
	case "status":
		st, err := a.api.ImportStatus(ctx)
		if err != nil {
			return err
		}
		a.printProgress(st)
	case "stop":
		reply, err := a.api.StopImport(ctx)
		if err != nil {
			return err
		}
		if reply.Result == "stopping" {
			fmt.Fprintln(a.out, "stop requested")
		} else {
			fmt.Fprintln(a.out, "no import is running")
		}
	case "seed":
		n, err := a.api.Seed(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "seeded %d record(s)\n", n)
	default:
		return usageError(usage)
	}
	return nil
}

func (a *App) Stats(ctx context.Context, args []string) error {
	st, err := a.api.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "total records: %d\n", st.TotalRecords)

	cats := make([]string, 0, len(st.Brands))
	for c := range st.Brands {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	for _, c := range cats {
		cat := models.Category(c)
		fmt.Fprintf(a.out, "  %s: %d brand(s), %d model(s)\n", c, st.Brands[cat], st.Models[cat])
	}
	return nil
}

func (a *App) printProgress(p models.ImportProgress) {
	if p.State == "" {
		fmt.Fprintln(a.out, "no import has run yet")
		return
	}
	fmt.Fprintf(a.out, "state: %s", p.State)
	if p.Category != "" {
		fmt.Fprintf(a.out, " (%s)", p.Category)
	}
	fmt.Fprintf(a.out, ", brand %d/%d %s, %d inserted\n", p.CurrentIndex, p.TotalCount, p.CurrentLabel, p.Inserted)
	if p.LastError != "" {
		fmt.Fprintf(a.out, "last error: %s\n", p.LastError)
	}
}
