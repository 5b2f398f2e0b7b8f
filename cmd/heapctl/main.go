// Command heapctl is an interactive debug console driving a demo VM and
// its collector. It exists to poke at the heap from a terminal: allocate
// cells, wire edges between them, root and unroot them, trigger
// collections, and inspect the resulting reports, metrics and object
// graph dumps.
//
// Usage:
//
//	heapctl [-config tunables.yaml] [command...]
//
// With arguments, the single command is executed and heapctl exits;
// without, it reads commands from stdin until EOF or "quit".
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/shlex"
	"github.com/inhies/go-bytesize"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/sprigvm/heap/heap"
	"github.com/sprigvm/heap/heap/config"
	hdebug "github.com/sprigvm/heap/heap/debug"
	"github.com/sprigvm/heap/heap/graph"
	"github.com/sprigvm/heap/heap/metrics"
	"github.com/sprigvm/heap/heap/report"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML tunables file")
	flag.Parse()

	var tunables *config.Tunables
	if *configPath != "" {
		t, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "heapctl:", err)
			os.Exit(1)
		}
		tunables = t
	}

	// Reports and the prompt are colorized only on a real terminal; the
	// colorable wrapping translates the ANSI sequences for Windows
	// consoles that cannot pass them through.
	colored := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	c := newConsole(tunables, colorable.NewColorable(os.Stdout), colored)
	defer c.close()

	if args := flag.Args(); len(args) > 0 {
		if err := c.run(args); err != nil {
			fmt.Fprintln(os.Stderr, "heapctl:", err)
			os.Exit(1)
		}
		return
	}

	prompt := "heap> "
	if colored {
		prompt = "\x1b[1mheap>\x1b[0m "
	}
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(c.out, prompt)
		if !in.Scan() {
			return
		}
		args, err := shlex.Split(in.Text())
		if err != nil {
			fmt.Fprintln(c.out, "parse error:", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return
		}
		if err := c.run(args); err != nil {
			fmt.Fprintln(c.out, "error:", err)
		}
	}
}

// console owns the demo VM, its heap, and the named cells and handles
// the user has created so far.
type console struct {
	out     io.Writer
	colored bool
	vm      *demoVM
	heap    *heap.Heap
	stats   *hdebug.Tracker
	cells   map[string]*object
	handles map[string]*heap.Handle
	closed  bool
}

func newConsole(t *config.Tunables, out io.Writer, colored bool) *console {
	vm := &demoVM{}
	classes := t.SizeClassesOrDefault(heap.DefaultSizeClasses())
	floor := t.GCMinBytesThresholdOrDefault(heap.GCMinBytesThreshold)
	h := heap.NewWithTunables(vm, classes, floor)
	if t != nil {
		h.CollectOnEveryAllocation = t.CollectOnEveryAllocation
		h.Debug = t.Debug
	}
	return &console{
		out:     out,
		colored: colored,
		vm:      vm,
		heap:    h,
		stats:   hdebug.Track(h),
		cells:   make(map[string]*object),
		handles: make(map[string]*heap.Handle),
	}
}

func (c *console) close() {
	if c.closed {
		return
	}
	c.closed = true
	c.heap.Close()
}

func (c *console) run(args []string) error {
	switch cmd, rest := args[0], args[1:]; cmd {
	case "help":
		c.help()
		return nil
	case "alloc":
		return c.alloc(rest)
	case "link":
		return c.link(rest, true)
	case "unlink":
		return c.link(rest, false)
	case "root":
		return c.root(rest)
	case "unroot":
		return c.unroot(rest)
	case "uproot":
		return c.uproot(rest)
	case "gc":
		return c.collect(heap.CollectGarbage)
	case "everything":
		return c.collect(heap.CollectEverything)
	case "defer":
		c.heap.DeferGC()
		return nil
	case "undefer":
		c.heap.UndeferGC()
		return nil
	case "report":
		c.printReport(c.heap.LastReport())
		return nil
	case "graph":
		return c.graph(rest)
	case "stats":
		return c.printStats()
	case "metrics":
		return c.printMetrics()
	case "ls":
		c.list()
		return nil
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (c *console) help() {
	fmt.Fprint(c.out, `commands:
  alloc <name> [bytes]   allocate a named cell (default 64 bytes)
  link <a> <b>           add an edge a -> b
  unlink <a> <b>         remove the edge a -> b
  root <name>            register a handle keeping <name> alive
  unroot <name>          release the handle on <name>
  uproot <name>          exclude <name> from surviving the next cycle
  gc                     run a collection
  everything             collect everything (no roots)
  defer / undefer        open / close a GC deferral window
  report                 print the last collection report
  graph [file]           dump the object graph as JSON
  stats                  print collection history and process usage
  metrics                print all heap metrics
  ls                     list named cells and their liveness
  quit
`)
}

func (c *console) alloc(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("alloc: missing name")
	}
	name := args[0]
	if _, ok := c.cells[name]; ok {
		return fmt.Errorf("alloc: %q already exists", name)
	}
	size := uintptr(64)
	if len(args) > 1 {
		var n uint64
		if _, err := fmt.Sscanf(args[1], "%d", &n); err != nil {
			return fmt.Errorf("alloc: bad size %q", args[1])
		}
		size = uintptr(n)
	}
	obj := &object{name: name}
	c.heap.AllocateCell(size, obj)
	c.cells[name] = obj
	return nil
}

func (c *console) lookup(name string) (*object, error) {
	obj, ok := c.cells[name]
	if !ok {
		return nil, fmt.Errorf("no cell named %q", name)
	}
	return obj, nil
}

func (c *console) link(args []string, add bool) error {
	if len(args) != 2 {
		return fmt.Errorf("expected two cell names")
	}
	from, err := c.lookup(args[0])
	if err != nil {
		return err
	}
	to, err := c.lookup(args[1])
	if err != nil {
		return err
	}
	if add {
		from.refs = append(from.refs, to)
		return nil
	}
	for i, r := range from.refs {
		if r == to {
			from.refs = append(from.refs[:i], from.refs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no edge %s -> %s", args[0], args[1])
}

func (c *console) root(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("root: expected one cell name")
	}
	if _, ok := c.handles[args[0]]; ok {
		return fmt.Errorf("root: %q is already rooted", args[0])
	}
	obj, err := c.lookup(args[0])
	if err != nil {
		return err
	}
	c.handles[args[0]] = heap.NewHandle(c.heap, obj)
	return nil
}

func (c *console) unroot(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("unroot: expected one cell name")
	}
	h, ok := c.handles[args[0]]
	if !ok {
		return fmt.Errorf("unroot: %q is not rooted", args[0])
	}
	h.Release()
	delete(c.handles, args[0])
	return nil
}

func (c *console) uproot(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("uproot: expected one cell name")
	}
	obj, err := c.lookup(args[0])
	if err != nil {
		return err
	}
	c.heap.UprootCell(obj)
	return nil
}

func (c *console) collect(typ heap.CollectionType) error {
	c.heap.CollectGarbage(typ, false)
	c.stats.Observe(c.heap.LastReport(), time.Now())
	for name, obj := range c.cells {
		if obj.State() != heap.CellStateLive {
			if hd, ok := c.handles[name]; ok {
				hd.Release()
				delete(c.handles, name)
			}
			delete(c.cells, name)
		}
	}
	c.printReport(c.heap.LastReport())
	return nil
}

func (c *console) printReport(r heap.Report) {
	if c.colored {
		report.FprintColored(c.out, r)
		return
	}
	report.Fprint(c.out, r)
}

// graph dumps the object graph to stdout, or to a file. The file is
// flock'd for the duration of the write so a monitor tailing the same
// path never reads a half-written dump.
func (c *console) graph(args []string) error {
	if len(args) == 0 {
		return graph.Dump(c.heap, c.out)
	}
	lock := flock.New(args[0] + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("graph: lock %s: %w", args[0], err)
	}
	defer lock.Unlock()

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	defer f.Close()
	return graph.Dump(c.heap, f)
}

func (c *console) printStats() error {
	var gs hdebug.GCStats
	hdebug.ReadGCStats(c.heap, &gs)
	fmt.Fprintf(c.out, "collections: %d\n", gs.NumGC)
	fmt.Fprintf(c.out, " last pause: %s\n", gs.LastPause)
	fmt.Fprintf(c.out, "pause total: %s\n", gs.PauseTotal)
	if rss, ok := maxRSSBytes(); ok {
		fmt.Fprintf(c.out, "    max rss: %s\n", bytesize.New(float64(rss)))
	}
	return nil
}

func (c *console) printMetrics() error {
	descs := metrics.All()
	samples := make([]metrics.Sample, len(descs))
	for i, d := range descs {
		samples[i].Name = d.Name
	}
	metrics.Read(c.heap, samples)
	for _, s := range samples {
		switch s.Value.Kind() {
		case metrics.KindUint64:
			fmt.Fprintf(c.out, "%-28s %d\n", s.Name, s.Value.Uint64())
		case metrics.KindFloat64:
			fmt.Fprintf(c.out, "%-28s %g\n", s.Name, s.Value.Float64())
		}
	}
	return nil
}

func (c *console) list() {
	names := make([]string, 0, len(c.cells))
	for name := range c.cells {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		obj := c.cells[name]
		rooted := ""
		if _, ok := c.handles[name]; ok {
			rooted = " (rooted)"
		}
		fmt.Fprintf(c.out, "%s: %s, %d edges%s\n", name, obj.State(), len(obj.refs), rooted)
	}
}
