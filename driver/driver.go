// Package driver sequences the rewriter passes over one module: discovery,
// untpit, canon (with an optional jigger salt), instantiate, and the custom
// section round-trip, logging one line per step (spec §2, "Driver").
package driver

import (
	"fmt"
	"log/slog"

	"github.com/portal-pit/pit/canon"
	"github.com/portal-pit/pit/iface"
	"github.com/portal-pit/pit/instantiate"
	"github.com/portal-pit/pit/internal/logging"
	"github.com/portal-pit/pit/module"
	"github.com/portal-pit/pit/untpit"
)

// Mode selects which terminal pass the pipeline ends with: a module destined
// for further linking stays in reference form (Canon); a module destined to
// run standalone is fully lowered (Instantiate).
type Mode int

const (
	// ModeCanon runs discovery, untpit, and canon/jigger, leaving the
	// module in opaque-reference form so it can still be merged with
	// further instances from other source modules (spec §4.5).
	ModeCanon Mode = iota
	// ModeInstantiate runs the full pipeline through instantiate,
	// producing a module with no opaque references left (spec §4.6).
	ModeInstantiate
)

// Options configures one pipeline run.
type Options struct {
	Mode Mode
	// Target is the instance name canon merges every source instance
	// into (spec §4.5 step 2). Ignored in ModeInstantiate, which always
	// merges against iface.InstantiateSentinel internally.
	Target string
	// JiggerSeed, if non-empty, salts instance identifiers after canon
	// via the jigger pass (spec §4.5, "jigger"). Ignored in
	// ModeInstantiate: a fully-instantiated module has no instance
	// identifiers left to salt.
	JiggerSeed string
	// Logger receives one Info line per pass and Debug detail for
	// per-interface work. Defaults to logging.DiscardLogger().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.DiscardLogger()
}

// Run executes the configured pipeline against mod in place: discover the
// embedded interface set, lower integer-handle ABIs to reference form
// (untpit), merge per-instance entry points (canon), optionally salt
// instance identifiers (jigger), and — in ModeInstantiate — lower
// everything back to plain integers end-to-end (instantiate). In ModeCanon
// the discovered interface set is re-embedded before Run returns (spec
// §4.2, §6); ModeInstantiate does not re-embed it.
func Run(mod *module.Module, opts Options) error {
	log := opts.logger()

	ifaces, err := iface.DiscoverOptional(mod)
	if err != nil {
		return fmt.Errorf("driver: discover: %w", err)
	}
	log.Info("discovered interfaces", "count", len(ifaces))

	if err := untpit.Rewrite(mod, ifaces); err != nil {
		return fmt.Errorf("driver: untpit: %w", err)
	}
	log.Info("untpit complete")

	switch opts.Mode {
	case ModeInstantiate:
		if err := instantiate.Instantiate(mod, ifaces); err != nil {
			return fmt.Errorf("driver: instantiate: %w", err)
		}
		log.Info("instantiate complete", "interfaces", len(ifaces))
		return nil

	default:
		target := opts.Target
		if target == "" {
			target = iface.InstantiateSentinel
		}
		for _, def := range ifaces {
			d := iface.ComputeDigest(def)
			if err := canon.Canon(mod, d, def, target); err != nil {
				return fmt.Errorf("driver: canon %s: %w", d.String()[:8], err)
			}
			log.Debug("canon merged interface", "digest", d.String()[:8], "target", target)
		}
		log.Info("canon complete", "interfaces", len(ifaces), "target", target)

		if opts.JiggerSeed != "" {
			canon.Jigger(mod, opts.JiggerSeed)
			log.Info("jigger complete", "seed", opts.JiggerSeed)
		}

		if err := iface.Embed(mod, ifaces); err != nil {
			return fmt.Errorf("driver: embed: %w", err)
		}
		log.Info("embed complete")
		return nil
	}
}
