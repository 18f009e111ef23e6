// motif-search searches an index built by motif-index for the occurrences of
// a motif and writes the hits as tab separated values.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/align"
	"github.com/TuftsBCB/motif/internal/cmdutil"
	"github.com/TuftsBCB/motif/motifdb"
	"github.com/TuftsBCB/motif/search"
	"github.com/TuftsBCB/motif/structio"
)

var (
	opts        = search.SearchDefault
	flagScheme  = opts.Scheme.String()
	flagAllowed = ""
	flagIgnored = ""
	flagContent = ""
	flagQueries = ""
	flagStream  = false
)

func init() {
	flag.IntVar(&opts.BackboneTolerance, "backbone-tolerance",
		opts.BackboneTolerance,
		"The number of bins the backbone distance of a residue pair may\n"+
			"deviate from the motif.")
	flag.IntVar(&opts.SideChainTolerance, "side-chain-tolerance",
		opts.SideChainTolerance,
		"The number of bins the side-chain distance of a residue pair may\n"+
			"deviate from the motif.")
	flag.IntVar(&opts.AngleTolerance, "angle-tolerance", opts.AngleTolerance,
		"The number of bins the angle of a residue pair may deviate from\n"+
			"the motif.")
	flag.StringVar(&flagScheme, "scheme", flagScheme,
		"The atoms used for superposition. One of 'all', 'backbone',\n"+
			"'alpha-carbon' or 'side-chain'.")
	flag.Float64Var(&opts.RMSDCutoff, "rmsd", opts.RMSDCutoff,
		"The largest RMSD of a reported hit.")
	flag.IntVar(&opts.Limit, "limit", opts.Limit,
		"The maximum number of hits. A negative limit reports every hit.")
	flag.StringVar(&flagAllowed, "allowed", flagAllowed,
		"A comma separated list of structures. When set, only these\n"+
			"structures are searched.")
	flag.StringVar(&flagIgnored, "ignored", flagIgnored,
		"A comma separated list of structures that are never searched.")
	flag.StringVar(&flagContent, "content", flagContent,
		"A comma separated list of content types ('experimental' or\n"+
			"'computational'). When set, only structures with these content\n"+
			"types are searched.")
	flag.StringVar(&flagQueries, "query-dir", flagQueries,
		"The directory holding the structure named by the motif definition.\n"+
			"Defaults to structure-dir.")
	flag.IntVar(&opts.Threads, "threads", opts.Threads,
		"The number of goroutines used by the search.")
	flag.DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"When positive, the search is stopped after this long.")
	flag.BoolVar(&opts.Verbose, "verbose", opts.Verbose,
		"When set, statistics about the search are logged.")
	flag.BoolVar(&flagStream, "stream", flagStream,
		"When set, hits are written as soon as they are found instead of\n"+
			"sorted by RMSD.")
}

func main() {
	cmdutil.FlagParse(
		"index-path structure-dir motif-definition",
		"Searches the index for the motif in the definition file and writes\n"+
			"every hit to stdout. structure-dir must hold the structure files\n"+
			"the index was built from.")
	cmdutil.AssertNArg(3)

	ctx, stop := cmdutil.Context()
	defer stop()

	var err error
	opts.Scheme, err = align.ParseScheme(flagScheme)
	cmdutil.Assert(err)
	opts.Allowed = splitList(flagAllowed)
	opts.Ignored = splitList(flagIgnored)
	for _, name := range splitList(flagContent) {
		ct, err := motif.ParseContentType(name)
		cmdutil.Assert(err)
		opts.Content = append(opts.Content, ct)
	}

	db, err := motifdb.Open(cmdutil.Arg(0))
	cmdutil.Assert(err, "Could not open index '%s'", cmdutil.Arg(0))
	data := structio.Dir{Root: cmdutil.Arg(1), Assembly: db.Assembly()}

	deff := cmdutil.OpenFile(cmdutil.Arg(2))
	def, err := motif.OpenDefinition(deff)
	cmdutil.Assert(err, "Could not read motif definition '%s'", cmdutil.Arg(2))
	cmdutil.Assert(deff.Close())

	queries := structio.Dir{Root: cmdutil.Arg(1), Assembly: def.Assembly}
	if len(flagQueries) > 0 {
		queries.Root = flagQueries
	}
	s, err := queries.ReadStructure(ctx, def.Structure)
	cmdutil.Assert(err)
	residues, err := def.Resolve(s)
	cmdutil.Assert(err)
	opts.Exchanges, err = def.ExchangeTypes()
	cmdutil.Assert(err)

	searcher := search.New(db, db, data)
	out := bufio.NewWriter(os.Stdout)
	cmdutil.Assert(writeHits(ctx, out, searcher, residues, opts, flagStream))
}

// writeHits runs a search and writes every hit to out as tab separated
// values. When stream is set, hits are written as they are found. out is
// flushed even if the search fails.
func writeHits(
	ctx context.Context,
	out *bufio.Writer,
	searcher *search.Searcher,
	residues []*motif.Residue,
	opts search.Options,
	stream bool,
) (err error) {
	defer func() {
		if ferr := out.Flush(); err == nil {
			err = ferr
		}
	}()

	writeHit := func(hit motif.Hit) error {
		_, err := fmt.Fprintf(out, "%s\t%s\t%s\n",
			hit, typeString(hit.Types()), hit.Transform)
		return err
	}
	fmt.Fprintf(out, "Structure\tRMSD\tResidues\tTypes\tTransform\n")
	if stream {
		return searcher.SearchEach(ctx, residues, opts, writeHit)
	}
	res, err := searcher.Search(ctx, residues, opts)
	if err != nil {
		return err
	}
	for _, hit := range res.Hits {
		if err := writeHit(hit); err != nil {
			return err
		}
	}
	return nil
}

func splitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); len(item) > 0 {
			items = append(items, item)
		}
	}
	return items
}

func typeString(types []motif.ResidueType) string {
	codes := make([]byte, len(types))
	for i, t := range types {
		codes[i] = byte(t.One())
	}
	return string(codes)
}
