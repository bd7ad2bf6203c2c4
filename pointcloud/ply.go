package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

const (
	plyRecordSize     = 15
	plyFlowRecordSize = 27

	// plyPreallocLimit bounds how many records ReadPLY reserves up front on
	// the word of the header alone.
	plyPreallocLimit = 1 << 20
)

var (
	plyBaseProperties = []string{
		"float x", "float y", "float z",
		"uchar red", "uchar green", "uchar blue",
	}
	plyFlowProperties = []string{"float vx", "float vy", "float vz"}
)

// WritePLY writes the cloud to out in the binary little endian PLY layout:
// a text header followed by one 15 byte record per point (position as three
// float32, color as three uint8), widened to 27 bytes by the three float32
// motion components when the cloud has flow attached. The same cloud always
// produces identical bytes.
func WritePLY(cloud *PointCloud, out io.Writer) error {
	w := bufio.NewWriter(out)
	if _, err := fmt.Fprintf(w, "ply\nformat binary_little_endian 1.0\nelement vertex %d\n", cloud.Size()); err != nil {
		return err
	}
	for _, prop := range plyBaseProperties {
		if _, err := fmt.Fprintf(w, "property %s\n", prop); err != nil {
			return err
		}
	}
	if cloud.HasFlow() {
		for _, prop := range plyFlowProperties {
			if _, err := fmt.Fprintf(w, "property %s\n", prop); err != nil {
				return err
			}
		}
	}
	if _, err := w.WriteString("end_header\n"); err != nil {
		return err
	}

	hasFlow := cloud.HasFlow()
	buf := make([]byte, plyFlowRecordSize)
	var err error
	cloud.Iterate(0, 0, func(i int, pos r3.Vector, c color.NRGBA) bool {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(pos.X)))
		binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(pos.Y)))
		binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(pos.Z)))
		buf[12] = c.R
		buf[13] = c.G
		buf[14] = c.B
		recordSize := plyRecordSize
		if hasFlow {
			flow := cloud.FlowAt(i)
			binary.LittleEndian.PutUint32(buf[15:], math.Float32bits(float32(flow.X)))
			binary.LittleEndian.PutUint32(buf[19:], math.Float32bits(float32(flow.Y)))
			binary.LittleEndian.PutUint32(buf[23:], math.Float32bits(float32(flow.Z)))
			recordSize = plyFlowRecordSize
		}
		_, err = w.Write(buf[:recordSize])
		return err == nil
	})
	if err != nil {
		return err
	}
	return w.Flush()
}

// ReadPLY reads back exactly the layout WritePLY produces. Files from other
// tools with different property layouts should go through ImportPLY instead.
func ReadPLY(in io.Reader) (*PointCloud, error) {
	r := bufio.NewReader(in)
	count, hasFlow, err := readPLYHeader(r)
	if err != nil {
		return nil, err
	}

	recordSize := plyRecordSize
	if hasFlow {
		recordSize = plyFlowRecordSize
	}
	// the header's count is unverified input until the payload backs it up,
	// so preallocation is capped and append grows the rest
	prealloc := count
	if prealloc > plyPreallocLimit {
		prealloc = plyPreallocLimit
	}
	cloud := NewWithPrealloc(prealloc)
	var flows []r3.Vector
	if hasFlow {
		flows = make([]r3.Vector, 0, prealloc)
	}
	buf := make([]byte, recordSize)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrapf(err, "reading vertex %d of %d", i, count)
		}
		pos := r3.Vector{
			X: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))),
			Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4:]))),
			Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[8:]))),
		}
		cloud.Append(pos, color.NRGBA{R: buf[12], G: buf[13], B: buf[14], A: 255})
		if hasFlow {
			flows = append(flows, r3.Vector{
				X: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[15:]))),
				Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[19:]))),
				Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[23:]))),
			})
		}
	}
	if hasFlow {
		if err := cloud.SetFlows(flows); err != nil {
			return nil, err
		}
	}
	return cloud, nil
}

func readPLYHeader(r *bufio.Reader) (count int, hasFlow bool, err error) {
	readLine := func() (string, error) {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", errors.Wrap(err, "error reading PLY header")
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	line, err := readLine()
	if err != nil {
		return 0, false, err
	}
	if line != "ply" {
		return 0, false, errors.Errorf("not a PLY file, header starts with %q", line)
	}

	count = -1
	var properties []string
	for {
		line, err = readLine()
		if err != nil {
			return 0, false, err
		}
		switch {
		case line == "end_header":
			if count < 0 {
				return 0, false, errors.New("PLY header is missing the vertex element")
			}
			baseJoined := strings.Join(plyBaseProperties, ",")
			flowJoined := baseJoined + "," + strings.Join(plyFlowProperties, ",")
			switch strings.Join(properties, ",") {
			case baseJoined:
				return count, false, nil
			case flowJoined:
				return count, true, nil
			default:
				return 0, false, errors.Errorf("unsupported PLY property layout %q", strings.Join(properties, " "))
			}
		case strings.HasPrefix(line, "comment"):
			continue
		case line == "format binary_little_endian 1.0":
			continue
		case strings.HasPrefix(line, "format "):
			return 0, false, errors.Errorf("unsupported PLY format %q", line)
		case strings.HasPrefix(line, "element vertex "):
			count, err = strconv.Atoi(strings.TrimPrefix(line, "element vertex "))
			if err != nil || count < 0 {
				return 0, false, errors.Errorf("invalid vertex count in %q", line)
			}
		case strings.HasPrefix(line, "element "):
			return 0, false, errors.Errorf("unsupported PLY element %q", line)
		case strings.HasPrefix(line, "property "):
			properties = append(properties, strings.TrimPrefix(line, "property "))
		default:
			return 0, false, errors.Errorf("unexpected PLY header line %q", line)
		}
	}
}

// ImportPLY reads an arbitrary PLY file through a generic parser, accepting
// ascii files and reordered property layouts other tools produce. Vertices
// must carry x, y, z; colors default to opaque white when the file has no
// red/green/blue; vx/vy/vz properties become motion vectors.
func ImportPLY(in io.Reader) (*PointCloud, error) {
	ply := goply.New(in)
	vertices := ply.Elements("vertex")
	cloud := NewWithPrealloc(len(vertices))

	hasColor := false
	hasFlow := false
	if len(vertices) > 0 {
		_, hasColor = vertices[0]["red"]
		_, hasFlow = vertices[0]["vx"]
	}
	var flows []r3.Vector
	if hasFlow {
		flows = make([]r3.Vector, 0, len(vertices))
	}

	for i, vertex := range vertices {
		pos, err := plyVector(vertex, "x", "y", "z")
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d", i)
		}
		c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		if hasColor {
			rgb, err := plyVector(vertex, "red", "green", "blue")
			if err != nil {
				return nil, errors.Wrapf(err, "vertex %d", i)
			}
			c = color.NRGBA{R: uint8(rgb.X), G: uint8(rgb.Y), B: uint8(rgb.Z), A: 255}
		}
		cloud.Append(pos, c)
		if hasFlow {
			flow, err := plyVector(vertex, "vx", "vy", "vz")
			if err != nil {
				return nil, errors.Wrapf(err, "vertex %d", i)
			}
			flows = append(flows, flow)
		}
	}
	if hasFlow {
		if err := cloud.SetFlows(flows); err != nil {
			return nil, err
		}
	}
	return cloud, nil
}

func plyVector(vertex map[string]interface{}, xName, yName, zName string) (r3.Vector, error) {
	x, err := plyFloat(vertex, xName)
	if err != nil {
		return r3.Vector{}, err
	}
	y, err := plyFloat(vertex, yName)
	if err != nil {
		return r3.Vector{}, err
	}
	z, err := plyFloat(vertex, zName)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: x, Y: y, Z: z}, nil
}

func plyFloat(vertex map[string]interface{}, name string) (float64, error) {
	v, ok := vertex[name]
	if !ok {
		return 0, errors.Errorf("vertex is missing property %q", name)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, errors.Errorf("vertex property %q has unsupported type %T", name, v)
	}
}

// NewFromPLYFile returns a pointcloud read in from the given PLY file.
func NewFromPLYFile(fn string, logger golog.Logger) (*PointCloud, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	cloud, err := ReadPLY(f)
	if err == nil {
		return cloud, nil
	}
	logger.Debugw("not a native PLY layout, using the generic parser", "file", fn, "error", err)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return ImportPLY(bufio.NewReader(f))
}

// WriteToPLYFile writes the point cloud out to a PLY file.
func WriteToPLYFile(cloud *PointCloud, fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WritePLY(cloud, f)
}
