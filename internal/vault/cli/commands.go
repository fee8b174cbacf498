package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dmitrijs2005/dripvault/internal/vault/sources"
)

var errNothingToImport = errors.New("nothing to import")

// Import encrypts the files named by paths into the vault. Directories are
// expanded one level deep. Unreadable paths are reported and skipped.
func (a *App) Import(ctx context.Context, paths []string) error {
	srcs, failed := sources.Expand(paths)

	bad := make([]string, 0, len(failed))
	for p := range failed {
		bad = append(bad, p)
	}
	slices.Sort(bad)
	for _, p := range bad {
		fmt.Fprintf(a.out, "%s skipping %s: %v\n", Warning.Sprint("!"), Path.Sprint(p), failed[p])
	}

	if len(srcs) == 0 {
		return errNothingToImport
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.out))
	s.Suffix = fmt.Sprintf(" Encrypting %d file(s)...", len(srcs))
	s.Start()
	n, err := a.engine.Import(ctx, srcs)
	s.Stop()

	if err != nil && n == 0 {
		return err
	}

	switch {
	case n == len(srcs):
		fmt.Fprintf(a.out, "%s Imported %d file(s)\n", Success.Sprint("✓"), n)
	default:
		fmt.Fprintf(a.out, "%s Imported %d of %d file(s) %s\n",
			Warning.Sprint("!"), n, len(srcs), Muted.Sprint("see the log for the skipped ones"))
	}
	return err
}

// Today lists the items offered today in schedule order.
func (a *App) Today(ctx context.Context) error {
	day, err := a.engine.Today(ctx)
	if err != nil {
		return err
	}

	if len(day.Records) == 0 {
		fmt.Fprintln(a.out, "Nothing to view today. Import some files first.")
		return nil
	}

	for i, rec := range day.Records {
		mark := Info.Sprint("•")
		if i < day.DailyIndex {
			mark = Success.Sprint("✓")
		}
		fmt.Fprintf(a.out, "%s %s  %s  %s\n", mark, ID.Sprint(rec.ID), rec.OriginalName, Muted.Sprint(formatSize(rec.SizeBytes)))
	}

	if day.Remaining() == 0 {
		fmt.Fprintln(a.out, Success.Sprint("All done for today."))
	} else {
		fmt.Fprintf(a.out, "%d left for today\n", day.Remaining())
	}
	return nil
}

// View decrypts id to a temporary file, prints its path and counts it as
// viewed.
func (a *App) View(ctx context.Context, id string) error {
	path, err := a.decrypt(ctx, id)
	if err != nil {
		return err
	}

	if err := a.engine.MarkViewed(ctx, id); err != nil {
		_ = os.Remove(path)
		return err
	}

	fmt.Fprintf(a.out, "%s Decrypted to %s\n", Success.Sprint("✓"), Path.Sprint(path))
	return nil
}

// Open decrypts id to a temporary file without counting it as viewed.
func (a *App) Open(ctx context.Context, id string) error {
	path, err := a.decrypt(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s Decrypted to %s %s\n", Success.Sprint("✓"), Path.Sprint(path), Muted.Sprint("not marked as viewed"))
	return nil
}

func (a *App) decrypt(ctx context.Context, id string) (string, error) {
	rec, err := a.engine.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return a.engine.DecryptToTemp(ctx, rec)
}

// Delete removes id from the vault, asking first unless confirmed.
func (a *App) Delete(ctx context.Context, id string, confirmed bool) error {
	rec, err := a.engine.Get(ctx, id)
	if err != nil {
		return err
	}

	if !confirmed {
		ok, err := confirm(a.reader, fmt.Sprintf("Delete %s (%s)?", rec.OriginalName, rec.ID), a.out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Cancelled")
			return nil
		}
	}

	if err := a.engine.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s Deleted %s\n", Success.Sprint("✓"), rec.OriginalName)
	return nil
}

// Status prints the vault counters.
func (a *App) Status(ctx context.Context) error {
	st, err := a.engine.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Items in vault:   %d\n", st.Total)
	fmt.Fprintf(a.out, "Cycle position:   %d / %d\n", st.Pointer, st.CycleLen)
	fmt.Fprintf(a.out, "Offered today:    %d\n", st.Offered)
	fmt.Fprintf(a.out, "Viewed today:     %d\n", st.ViewedToday)
	fmt.Fprintf(a.out, "Remaining today:  %d\n", st.RemainingToday)
	return nil
}
