// sceneconverter converts scene files between formats, with optional
// mesh and material processing stages in between.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/assettools/sceneforge/internal/config"
	"github.com/assettools/sceneforge/internal/logger"
	_ "github.com/assettools/sceneforge/pkg/formats"
	"github.com/assettools/sceneforge/pkg/materialtools"
	"github.com/assettools/sceneforge/pkg/meshtools"
	"github.com/assettools/sceneforge/pkg/scenetools"
	"github.com/assettools/sceneforge/pkg/trade"
)

// Exit codes, one per failure class.
const (
	exitUsage   = 1
	exitPlugin  = 2
	exitOpen    = 3
	exitImport  = 4
	exitConvert = 5
)

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	configPath string

	importerName    string
	importerOptions string

	converterNames   stringList
	converterOptions stringList

	meshConverterNames   stringList
	meshConverterOptions stringList

	prefer stringList
	set    stringList

	removeDuplicateVertices bool
	fuzzyEpsilon            float64

	phongToPbr               bool
	keepMaterialAttributes   bool
	failOnUnconvertible      bool
	removeDuplicateMaterials bool

	concatenateMeshes  bool
	meshID             int
	meshLevel          int
	onlyMeshAttributes string

	info           bool
	infoScenes     bool
	infoAnimations bool
	infoLights     bool
	infoCameras    bool
	infoMaterials  bool
	infoMeshes     bool
	infoSkins      bool
	infoTextures   bool
	infoImages     bool

	passthroughOnMeshFailure     bool
	passthroughOnMaterialFailure bool

	profile bool
	verbose bool
	quiet   bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options
	fs := flag.NewFlagSet("sceneconverter", flag.ContinueOnError)
	fs.Usage = printUsage

	fs.StringVar(&opts.configPath, "config", "", "")
	fs.StringVar(&opts.importerName, "I", "", "")
	fs.StringVar(&opts.importerOptions, "i", "", "")
	fs.Var(&opts.converterNames, "C", "")
	fs.Var(&opts.converterOptions, "c", "")
	fs.Var(&opts.meshConverterNames, "M", "")
	fs.Var(&opts.meshConverterOptions, "m", "")
	fs.Var(&opts.prefer, "prefer", "")
	fs.Var(&opts.set, "set", "")
	fs.BoolVar(&opts.removeDuplicateVertices, "remove-duplicate-vertices", false, "")
	fs.Float64Var(&opts.fuzzyEpsilon, "remove-duplicate-vertices-fuzzy", -1, "")
	fs.BoolVar(&opts.phongToPbr, "phong-to-pbr", false, "")
	fs.BoolVar(&opts.keepMaterialAttributes, "keep-material-attributes", false, "")
	fs.BoolVar(&opts.failOnUnconvertible, "fail-on-unconvertible-materials", false, "")
	fs.BoolVar(&opts.removeDuplicateMaterials, "remove-duplicate-materials", false, "")
	fs.BoolVar(&opts.concatenateMeshes, "concatenate-meshes", false, "")
	fs.IntVar(&opts.meshID, "mesh", -1, "")
	fs.IntVar(&opts.meshLevel, "level", 0, "")
	fs.StringVar(&opts.onlyMeshAttributes, "only-mesh-attributes", "", "")
	fs.BoolVar(&opts.info, "info", false, "")
	fs.BoolVar(&opts.infoScenes, "info-scenes", false, "")
	fs.BoolVar(&opts.infoAnimations, "info-animations", false, "")
	fs.BoolVar(&opts.infoLights, "info-lights", false, "")
	fs.BoolVar(&opts.infoCameras, "info-cameras", false, "")
	fs.BoolVar(&opts.infoMaterials, "info-materials", false, "")
	fs.BoolVar(&opts.infoMeshes, "info-meshes", false, "")
	fs.BoolVar(&opts.infoSkins, "info-skins", false, "")
	fs.BoolVar(&opts.infoTextures, "info-textures", false, "")
	fs.BoolVar(&opts.infoImages, "info-images", false, "")
	fs.BoolVar(&opts.passthroughOnMeshFailure, "passthrough-on-mesh-failure", false, "")
	fs.BoolVar(&opts.passthroughOnMaterialFailure, "passthrough-on-material-failure", false, "")
	fs.BoolVar(&opts.profile, "profile", false, "")
	fs.BoolVar(&opts.verbose, "v", false, "")
	fs.BoolVar(&opts.verbose, "verbose", false, "")
	fs.BoolVar(&opts.quiet, "quiet", false, "")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return exitUsage
	}

	infoMode := opts.info || opts.infoScenes || opts.infoAnimations ||
		opts.infoLights || opts.infoCameras || opts.infoMaterials ||
		opts.infoMeshes || opts.infoSkins || opts.infoTextures || opts.infoImages

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file given")
		printUsage()
		return exitUsage
	}
	if fs.NArg() < 2 && !infoMode {
		fmt.Fprintln(os.Stderr, "Error: no output file given")
		printUsage()
		return exitUsage
	}
	input := fs.Arg(0)
	output := fs.Arg(1)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	level := cfg.Logging.Level
	if opts.verbose {
		level = "debug"
	} else if opts.quiet {
		level = "error"
	}
	if err := logger.Init(level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer logger.Sync()
	trade.SetLogger(logger.Log)
	materialtools.SetLogger(logger.Log)

	prefer, err := preferences(cfg, opts.prefer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	// Importer selection and options.
	importerName := opts.importerName
	if importerName == "" {
		importerName = cfg.Plugins.Importer
	}
	var imp trade.Importer
	if importerName != "" {
		imp, err = trade.NewImporter(importerName)
	} else {
		imp, importerName, err = trade.ImporterForPath(input, prefer)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitPlugin
	}
	importerOpts, err := mergeOptions(cfg.Options.Importer, opts.importerOptions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	applyOptions(imp, importerName, importerOpts)

	importStart := time.Now()
	if err := imp.Open(input); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open %s: %v\n", input, err)
		return exitOpen
	}
	defer imp.Close()
	importTime := time.Since(importStart)

	if infoMode {
		if err := printInfo(imp, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitImport
		}
		if opts.profile {
			fmt.Printf("Import took %.3f seconds\n", importTime.Seconds())
		}
		return 0
	}

	return convert(imp, output, cfg, prefer, opts, importTime)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `sceneconverter - scene file conversion utility

Usage:
  sceneconverter [options] input output
  sceneconverter [options] --info input

Plugin selection:
  -I NAME            importer plugin (default: by input extension)
  -C NAME            converter plugin, repeatable to form a chain; all
                     but the last have to support single-mesh conversion
                     (default: by output extension)
  -M NAME            mesh converter plugin applied to every mesh before
                     output, repeatable
  -i KEY=VAL,...     importer options
  -c KEY=VAL,...     converter options, i-th use belongs to the i-th -C
  -m KEY=VAL,...     mesh converter options, i-th use belongs to the i-th -M
  --prefer EXT=NAME  prefer a plugin for an extension, repeatable
  --set KEY=VAL      extra option applied to every converter, repeatable

Processing:
  --remove-duplicate-vertices          deduplicate vertices in all meshes
  --remove-duplicate-vertices-fuzzy E  fuzzy-deduplicate with epsilon E
  --phong-to-pbr                       convert Phong materials to PBR
  --keep-material-attributes           keep original attributes when converting
  --fail-on-unconvertible-materials    fail instead of dropping with a warning
  --remove-duplicate-materials         deduplicate materials, remapping scenes
  --concatenate-meshes                 concatenate all meshes into one,
                                       flattened by scene transforms
  --mesh ID                            convert a single mesh instead of a scene
  --level L                            mesh level to use with --mesh
  --only-mesh-attributes I,J,K-L       keep only the given mesh attributes
  --passthrough-on-mesh-failure        pass the original mesh through when a
                                       mesh stage fails
  --passthrough-on-material-failure    pass the original material through when
                                       a material stage fails

Introspection (no output file needed):
  --info             print everything known about the input
  --info-scenes, --info-animations, --info-lights, --info-cameras,
  --info-materials, --info-meshes, --info-skins, --info-textures,
  --info-images

Other:
  --config PATH      config file (default: sceneconverter.yaml lookup)
  --profile          report import and conversion wall time
  -v, --verbose      verbose output
  --quiet            suppress warnings
  -h, --help         this help`)
}

// preferences merges the config prefer map with --prefer flags, flags
// winning. Extensions are normalized to lowercase with a leading dot.
func preferences(cfg *config.Config, flags []string) (map[string]string, error) {
	out := make(map[string]string, len(cfg.Plugins.Prefer)+len(flags))
	for ext, name := range cfg.Plugins.Prefer {
		out[normalizeExt(ext)] = name
	}
	for _, entry := range flags {
		ext, name, ok := strings.Cut(entry, "=")
		if !ok || ext == "" || name == "" {
			return nil, fmt.Errorf("invalid --prefer %q, expected EXT=NAME", entry)
		}
		out[normalizeExt(ext)] = name
	}
	return out, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// mergeOptions layers a KEY=VAL,... flag string over config defaults.
func mergeOptions(defaults map[string]string, flagStr string) (map[string]string, error) {
	out := make(map[string]string, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	if flagStr == "" {
		return out, nil
	}
	for _, pair := range strings.Split(flagStr, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid option %q, expected KEY=VAL", pair)
		}
		out[k] = v
	}
	return out, nil
}

// optionSetter is implemented by plugins that take options.
type optionSetter interface {
	SetOption(key, value string) error
}

// applyOptions forwards options to the plugin, warning about anything it
// does not take.
func applyOptions(plugin any, name string, opts map[string]string) {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	setter, settable := plugin.(optionSetter)
	for _, k := range keys {
		if settable {
			if err := setter.SetOption(k, opts[k]); err == nil {
				continue
			}
		}
		logger.Warn("option not recognized by the plugin",
			zap.String("plugin", name), zap.String("option", k))
	}
}

// converterChain resolves the -C chain, falling back to the config and
// then to output extension dispatch for the last (or only) converter.
func converterChain(output string, cfg *config.Config, prefer map[string]string, opts options) ([]*trade.Converter, []string, int) {
	names := []string(opts.converterNames)
	if len(names) == 0 && cfg.Plugins.Converter != "" {
		names = []string{cfg.Plugins.Converter}
	}
	if len(opts.converterOptions) > len(names) && !(len(names) == 0 && len(opts.converterOptions) == 1) {
		fmt.Fprintf(os.Stderr, "Error: %d -c options for %d converters\n",
			len(opts.converterOptions), len(names))
		return nil, nil, exitUsage
	}

	var chain []*trade.Converter
	var chainNames []string
	for _, name := range names {
		conv, err := trade.NewConverterPlugin(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return nil, nil, exitPlugin
		}
		chain = append(chain, conv)
		chainNames = append(chainNames, name)
	}
	if len(chain) == 0 {
		conv, name, err := trade.ConverterForPath(output, prefer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return nil, nil, exitPlugin
		}
		chain = append(chain, conv)
		chainNames = append(chainNames, name)
	}

	for i, conv := range chain {
		if i < len(chain)-1 && conv.Features()&trade.FeatureConvertMesh == 0 {
			fmt.Fprintf(os.Stderr, "Error: %s cannot convert single meshes and is not the last converter in the chain\n", chainNames[i])
			return nil, nil, exitUsage
		}
		flags := converterFlags(opts)
		conv.SetFlags(flags)
		convOpts, err := mergeOptions(cfg.Options.Converter, chainOption(opts.converterOptions, i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return nil, nil, exitUsage
		}
		for _, pair := range opts.set {
			k, v, ok := strings.Cut(pair, "=")
			if !ok || k == "" {
				fmt.Fprintf(os.Stderr, "Error: invalid --set %q, expected KEY=VAL\n", pair)
				return nil, nil, exitUsage
			}
			convOpts[k] = v
		}
		applyOptions(conv.Backend(), chainNames[i], convOpts)
	}
	return chain, chainNames, 0
}

func chainOption(opts []string, i int) string {
	if i < len(opts) {
		return opts[i]
	}
	return ""
}

func converterFlags(opts options) trade.ConverterFlags {
	var flags trade.ConverterFlags
	if opts.quiet {
		flags |= trade.FlagQuiet
	}
	if opts.verbose {
		flags |= trade.FlagVerbose
	}
	return flags
}

// meshConverterChain resolves the -M chain. Every mesh converter has to
// support single-mesh conversion.
func meshConverterChain(cfg *config.Config, opts options) ([]*trade.Converter, []string, int) {
	if len(opts.meshConverterOptions) > len(opts.meshConverterNames) {
		fmt.Fprintf(os.Stderr, "Error: %d -m options for %d mesh converters\n",
			len(opts.meshConverterOptions), len(opts.meshConverterNames))
		return nil, nil, exitUsage
	}
	var chain []*trade.Converter
	var names []string
	for i, name := range opts.meshConverterNames {
		conv, err := trade.NewConverterPlugin(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return nil, nil, exitPlugin
		}
		if conv.Features()&trade.FeatureConvertMesh == 0 {
			fmt.Fprintf(os.Stderr, "Error: %s cannot convert single meshes\n", name)
			return nil, nil, exitUsage
		}
		conv.SetFlags(converterFlags(opts))
		convOpts, err := mergeOptions(nil, chainOption(opts.meshConverterOptions, i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return nil, nil, exitUsage
		}
		applyOptions(conv.Backend(), name, convOpts)
		chain = append(chain, conv)
		names = append(names, name)
	}
	return chain, names, 0
}

func convert(imp trade.Importer, output string, cfg *config.Config, prefer map[string]string, opts options, importTime time.Duration) int {
	chain, chainNames, code := converterChain(output, cfg, prefer, opts)
	if code != 0 {
		return code
	}
	meshChain, meshChainNames, code := meshConverterChain(cfg, opts)
	if code != 0 {
		return code
	}

	var attributeIDs []int
	if opts.onlyMeshAttributes != "" {
		var err error
		attributeIDs, err = parseIndexList(opts.onlyMeshAttributes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitUsage
		}
	}

	stages := meshStages{
		attributeIDs:      attributeIDs,
		dedup:             opts.removeDuplicateVertices,
		fuzzyEpsilon:      float32(opts.fuzzyEpsilon),
		fuzzy:             opts.fuzzyEpsilon >= 0,
		chain:             meshChain,
		chainNames:        meshChainNames,
		passthrough:       opts.passthroughOnMeshFailure,
		quiet:             opts.quiet,
		intermediate:      chain[:len(chain)-1],
		intermediateNames: chainNames[:len(chainNames)-1],
	}

	convertStart := time.Now()
	if opts.meshID >= 0 {
		code = convertSingleMesh(imp, chain, chainNames, output, stages, opts)
	} else {
		code = convertScene(imp, chain, chainNames, output, stages, opts)
	}
	if code != 0 {
		return code
	}

	if opts.profile {
		fmt.Printf("Import took %.3f seconds, conversion %.3f seconds\n",
			importTime.Seconds(), time.Since(convertStart).Seconds())
	}
	return 0
}

// meshStages is the per-mesh processing pipeline shared by the
// single-mesh and whole-scene paths.
type meshStages struct {
	attributeIDs []int
	dedup        bool
	fuzzy        bool
	fuzzyEpsilon float32

	chain      []*trade.Converter
	chainNames []string

	// Converters before the last one in the -C chain run per mesh too.
	intermediate      []*trade.Converter
	intermediateNames []string

	passthrough bool
	quiet       bool
}

func (s *meshStages) active() bool {
	return s.attributeIDs != nil || s.dedup || s.fuzzy ||
		len(s.chain) > 0 || len(s.intermediate) > 0
}

// apply runs all mesh stages on one mesh. The id is used for diagnostics
// only.
func (s *meshStages) apply(mesh *trade.MeshData, id int) (*trade.MeshData, error) {
	if s.attributeIDs != nil {
		filtered, err := meshtools.FilterOnlyAttributes(mesh, s.attributeIDs)
		if err != nil {
			return nil, fmt.Errorf("filtering mesh %d: %w", id, err)
		}
		mesh = filtered
	}

	if s.dedup {
		before := mesh.VertexCount
		mesh = meshtools.RemoveDuplicates(mesh)
		if !s.quiet {
			fmt.Printf("Mesh %d duplicate removal: %d -> %d vertices\n", id, before, mesh.VertexCount)
		}
	}
	if s.fuzzy {
		before := mesh.VertexCount
		mesh = meshtools.RemoveDuplicatesFuzzy(mesh, s.fuzzyEpsilon)
		if !s.quiet {
			fmt.Printf("Mesh %d fuzzy duplicate removal: %d -> %d vertices\n", id, before, mesh.VertexCount)
		}
	}

	// Mesh converter plugins get the duplicate-removal result.
	for i, conv := range s.chain {
		out, err := conv.ConvertMesh(mesh)
		if err != nil {
			if !s.passthrough {
				return nil, fmt.Errorf("%s failed on mesh %d: %w", s.chainNames[i], id, err)
			}
			logger.Warn("mesh converter failed, passing the original through",
				zap.String("plugin", s.chainNames[i]), zap.Int("mesh", id), zap.Error(err))
			continue
		}
		mesh = out
	}

	for i, conv := range s.intermediate {
		out, err := conv.ConvertMesh(mesh)
		if err != nil {
			return nil, fmt.Errorf("%s failed on mesh %d: %w", s.intermediateNames[i], id, err)
		}
		mesh = out
	}
	return mesh, nil
}

// convertSingleMesh handles --mesh: one mesh goes through the stages and
// the last converter writes it out.
func convertSingleMesh(imp trade.Importer, chain []*trade.Converter, chainNames []string, output string, stages meshStages, opts options) int {
	if opts.meshID >= imp.MeshCount() {
		fmt.Fprintf(os.Stderr, "Error: mesh %d out of range for %d meshes\n", opts.meshID, imp.MeshCount())
		return exitUsage
	}
	if opts.meshLevel < 0 || opts.meshLevel >= imp.MeshLevelCount(opts.meshID) {
		fmt.Fprintf(os.Stderr, "Error: level %d out of range for %d levels\n", opts.meshLevel, imp.MeshLevelCount(opts.meshID))
		return exitUsage
	}
	mesh, err := imp.Mesh(opts.meshID, opts.meshLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot import mesh %d: %v\n", opts.meshID, err)
		return exitImport
	}

	announceChain(chainNames, opts.quiet)
	mesh, err = stages.apply(mesh, opts.meshID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitConvert
	}

	last := chain[len(chain)-1]
	if last.Features()&(trade.FeatureConvertMeshToFile|trade.FeatureConvertMultipleToFile) == 0 {
		fmt.Fprintf(os.Stderr, "Error: %s cannot write a mesh to a file\n", chainNames[len(chainNames)-1])
		return exitUsage
	}
	if err := last.ConvertMeshToFile(mesh, output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save %s: %v\n", output, err)
		return exitConvert
	}
	return 0
}

// announceChain prints the per-step progress lines when converters are
// chained.
func announceChain(chainNames []string, quiet bool) {
	if len(chainNames) < 2 || quiet {
		return
	}
	n := len(chainNames)
	for i, name := range chainNames[:n-1] {
		fmt.Printf("Processing (%d/%d) with %s...\n", i+1, n, name)
	}
	fmt.Printf("Saving output (%d/%d) with %s...\n", n, n, chainNames[n-1])
}

// convertScene handles the whole-scene path: optional mesh and material
// stages produce loose replacement arrays, everything else flows through
// the batch aggregation on the last converter.
func convertScene(imp trade.Importer, chain []*trade.Converter, chainNames []string, output string, stages meshStages, opts options) int {
	last := chain[len(chain)-1]
	if last.Features()&trade.FeatureConvertMultipleToFile == 0 {
		fmt.Fprintf(os.Stderr, "Error: %s cannot write scene files\n", chainNames[len(chainNames)-1])
		return exitUsage
	}

	contents := trade.ContentsFor(imp)

	// Mesh stages pull all meshes out of the importer and substitute
	// the whole category.
	var looseMeshes []*trade.MeshData
	if stages.active() || opts.concatenateMeshes {
		announceChain(chainNames, opts.quiet)
		n := imp.MeshCount()
		looseMeshes = make([]*trade.MeshData, n)
		for i := 0; i < n; i++ {
			mesh, err := imp.Mesh(i, 0)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: cannot import mesh %d: %v\n", i, err)
				return exitImport
			}
			looseMeshes[i], err = stages.apply(mesh, i)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return exitConvert
			}
		}
	}

	if opts.concatenateMeshes && len(looseMeshes) > 0 {
		concatenated, code := concatenateMeshes(imp, looseMeshes)
		if code != 0 {
			return code
		}
		looseMeshes = []*trade.MeshData{concatenated}
		// The scene hierarchy is baked into the result.
		contents &^= trade.SceneContentScenes
	}

	// Material stages.
	var looseMaterials []*trade.MaterialData
	var materialMapping []uint32
	if opts.phongToPbr || opts.removeDuplicateMaterials {
		var code int
		looseMaterials, materialMapping, code = processMaterials(imp, opts)
		if code != 0 {
			return code
		}
	}

	if err := last.BeginFile(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot begin %s: %v\n", output, err)
		return exitConvert
	}

	// Loose categories replace the importer's, and scenes reference
	// meshes and materials, so with any loose array the scenes have to
	// wait until all loose data went in.
	looseScenes := looseMeshes != nil || looseMaterials != nil
	remaining := contents
	if looseMeshes != nil {
		remaining &^= trade.SceneContentMeshes | trade.SceneContentMeshLevels
	}
	if looseMaterials != nil {
		remaining &^= trade.SceneContentMaterials
	}
	if looseScenes {
		remaining &^= trade.SceneContentScenes
	}

	if err := last.AddSupportedImporterContents(imp, remaining); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitConvert
	}
	if code := addLooseMaterials(last, imp, looseMaterials, opts); code != 0 {
		return code
	}
	if code := addLooseMeshes(last, imp, looseMeshes, opts); code != 0 {
		return code
	}
	if looseScenes && contents&trade.SceneContentScenes != 0 {
		if code := addRemappedScenes(last, imp, materialMapping, opts); code != 0 {
			return code
		}
	}

	if err := last.EndFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save %s: %v\n", output, err)
		return exitConvert
	}
	return 0
}

// processMaterials runs the material stages. The mapping is non-nil only
// after duplicate removal and then applies to scene material fields.
func processMaterials(imp trade.Importer, opts options) ([]*trade.MaterialData, []uint32, int) {
	n := imp.MaterialCount()
	materials := make([]*trade.MaterialData, n)
	for i := 0; i < n; i++ {
		material, err := imp.Material(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot import material %d: %v\n", i, err)
			return nil, nil, exitImport
		}
		materials[i] = material
	}

	if opts.phongToPbr {
		var flags materialtools.ConversionFlags
		if opts.keepMaterialAttributes {
			flags |= materialtools.KeepOriginalAttributes
		}
		if opts.failOnUnconvertible {
			flags |= materialtools.FailOnUnconvertible
		}
		for i, material := range materials {
			converted, err := materialtools.PhongToPbrMetallicRoughness(material, flags)
			if err != nil {
				if !opts.passthroughOnMaterialFailure {
					fmt.Fprintf(os.Stderr, "Error: converting material %d: %v\n", i, err)
					return nil, nil, exitConvert
				}
				logger.Warn("material conversion failed, passing the original through",
					zap.Int("material", i), zap.Error(err))
				continue
			}
			materials[i] = converted
		}
	}

	var mapping []uint32
	if opts.removeDuplicateMaterials {
		before := len(materials)
		materials, mapping = materialtools.RemoveDuplicates(materials)
		if !opts.quiet {
			fmt.Printf("Duplicate material removal: %d -> %d materials\n", before, len(materials))
		}
	}
	return materials, mapping, 0
}

// addLooseMeshes feeds stage output into the conversion in place of the
// importer's mesh category.
func addLooseMeshes(conv *trade.Converter, imp trade.Importer, meshes []*trade.MeshData, opts options) int {
	if meshes == nil {
		return 0
	}
	if conv.Features()&trade.FeatureAddMeshes == 0 {
		if !opts.quiet && len(meshes) > 0 {
			logger.Warn(fmt.Sprintf("ignoring %d meshes not supported by the converter", len(meshes)))
		}
		return 0
	}
	single := len(meshes) == 1 && opts.concatenateMeshes
	for i, mesh := range meshes {
		name := ""
		if !single {
			name = imp.MeshName(i)
		}
		for _, a := range mesh.Attributes {
			if !trade.IsMeshAttributeCustom(a.Name) {
				continue
			}
			if attrName := imp.MeshAttributeName(a.Name); attrName != "" {
				conv.SetMeshAttributeName(a.Name, attrName)
			}
		}
		if _, err := conv.AddMesh(mesh, name); err != nil {
			fmt.Fprintf(os.Stderr, "Error: adding mesh %d: %v\n", i, err)
			return exitConvert
		}
	}
	return 0
}

func addLooseMaterials(conv *trade.Converter, imp trade.Importer, materials []*trade.MaterialData, opts options) int {
	if materials == nil {
		return 0
	}
	if conv.Features()&trade.FeatureAddMaterials == 0 {
		if !opts.quiet && len(materials) > 0 {
			logger.Warn(fmt.Sprintf("ignoring %d materials not supported by the converter", len(materials)))
		}
		return 0
	}
	for i, material := range materials {
		if _, err := conv.AddMaterial(material, imp.MaterialName(i)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: adding material %d: %v\n", i, err)
			return exitConvert
		}
	}
	return 0
}

// addRemappedScenes adds all scenes after the loose categories went in,
// replicating the name and default-scene propagation of the normal batch
// path. A non-nil mapping additionally remaps material fields through
// the duplicate-removal result.
func addRemappedScenes(conv *trade.Converter, imp trade.Importer, mapping []uint32, opts options) int {
	if conv.Features()&trade.FeatureAddScenes == 0 {
		if !opts.quiet && imp.SceneCount() > 0 {
			logger.Warn(fmt.Sprintf("ignoring %d scenes not supported by the converter", imp.SceneCount()))
		}
		return 0
	}
	n := imp.SceneCount()
	for i := 0; i < n; i++ {
		scene, err := imp.Scene(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot import scene %d: %v\n", i, err)
			return exitImport
		}
		if mapping != nil {
			if _, ok := scene.FieldID(trade.SceneFieldMeshMaterial); ok {
				scene = scenetools.MapIndexField(scene, trade.SceneFieldMeshMaterial, mapping)
			}
		}
		for f := range scene.Fields {
			field := scene.Fields[f].Field
			if trade.IsSceneFieldCustom(field) {
				if name := imp.SceneFieldName(field); name != "" {
					conv.SetSceneFieldName(field, name)
				}
			}
		}
		if _, err := conv.AddScene(scene, imp.SceneName(i)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: adding scene %d: %v\n", i, err)
			return exitConvert
		}
		for id := uint64(0); id < scene.MappingBound; id++ {
			if name := imp.ObjectName(id); name != "" {
				conv.SetObjectName(id, name)
			}
		}
	}
	if def := imp.DefaultScene(); def >= 0 && def < n {
		conv.SetDefaultScene(def)
	}
	return 0
}
