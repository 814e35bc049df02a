// Command m2tsmux drives the astits Muxer over a single input: an SDP file
// describing one or more RTP sessions (push-mode, via esutil/rtpsrc), muxed
// in real time to the named output file. MP4 input is detected but requires
// an external ISO-BMFF demultiplexer implementing esutil/mp4src.FrameReader
// to be wired in (box parsing is explicitly out of scope, per spec.md §1).
package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pion/rtp"

	astits "github.com/barbashov/go-astits"
	"github.com/barbashov/go-astits/esutil"
	"github.com/barbashov/go-astits/esutil/rtpsrc"
	"github.com/barbashov/go-astits/internal/fileprobe"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: m2tsmux <input.sdp> <output.ts>")
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintln(os.Stderr, "m2tsmux:", err)
		os.Exit(1)
	}
}

func run(inputPath, outputPath string) error {
	kind, err := fileprobe.Detect(inputPath)
	if err != nil {
		return fmt.Errorf("probing %s: %w", inputPath, err)
	}
	if kind == fileprobe.KindUnknown {
		return fmt.Errorf("%s: input not recognized as ISO-BMFF or SDP", inputPath)
	}
	if kind != fileprobe.KindSDP {
		return fmt.Errorf("%s: MP4 input requires an external esutil/mp4src.FrameReader wired in by the embedding program", inputPath)
	}

	sessions, err := parseSDP(inputPath)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", inputPath, err)
	}
	if len(sessions) == 0 {
		return fmt.Errorf("%s: no media sections found", inputPath)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	defer w.Flush()

	mux := astits.NewMuxer(w, astits.MuxerOptionRealTime())
	program, err := mux.AddProgram(0)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for i, sess := range sessions {
		meta := esutil.Metadata{StreamType: sess.mediaType, ObjectTypeIndication: sess.oti}
		adapter := rtpsrc.New(meta, sess.clockRate)
		if _, err := mux.AddElementaryStream(program, adapter, i == 0, 0); err != nil {
			return fmt.Errorf("attaching session %d: %w", i, err)
		}
		if err := listenRTP(ctx, sess.port, adapter); err != nil {
			return fmt.Errorf("listening on port %d: %w", sess.port, err)
		}
	}

	return mux.Run(ctx)
}

// listenRTP opens a UDP socket on port and feeds every received RTP packet
// into adapter.WriteRTP from a dedicated goroutine (§4.6, §5's push model).
func listenRTP(ctx context.Context, port int, adapter *rtpsrc.Adapter) error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return err
	}
	go func() {
		defer conn.Close()
		defer adapter.Close()
		buf := make([]byte, 1500)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			n, _, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			var pkt rtp.Packet
			if err := pkt.Unmarshal(buf[:n]); err != nil {
				continue
			}
			adapter.WriteRTP(&pkt)
		}
	}()
	return nil
}

type sdpSession struct {
	port      int
	clockRate uint32
	mediaType esutil.MediaType
	oti       uint8
}

// parseSDP extracts just enough from an SDP file's "m=" and "a=rtpmap"
// lines to drive one RTP listener per media section. Full SDP parsing
// (session-level attributes, multiple codecs per m-line) is out of scope;
// the first rtpmap for each m-line wins.
func parseSDP(path string) ([]sdpSession, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sessions []sdpSession
	var haveRtpmap bool
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "m="):
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			port, err := strconv.Atoi(fields[1])
			if err != nil {
				continue
			}
			mediaType := esutil.MediaAudio
			if strings.HasPrefix(fields[0], "m=video") {
				mediaType = esutil.MediaVisual
			}
			sessions = append(sessions, sdpSession{port: port, clockRate: 90000, mediaType: mediaType, oti: 0x21})
			haveRtpmap = false
		case strings.HasPrefix(line, "a=rtpmap:") && len(sessions) > 0 && !haveRtpmap:
			if rate := rtpmapClockRate(line); rate > 0 {
				sessions[len(sessions)-1].clockRate = rate
				haveRtpmap = true
			}
		}
	}
	return sessions, sc.Err()
}

// rtpmapClockRate extracts the clock rate from an "a=rtpmap:<pt> <name>/<rate>"
// line.
func rtpmapClockRate(line string) uint32 {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) != 2 {
		return 0
	}
	encParts := strings.Split(parts[1], "/")
	if len(encParts) < 2 {
		return 0
	}
	rate, err := strconv.Atoi(strings.TrimSpace(encParts[1]))
	if err != nil {
		return 0
	}
	return uint32(rate)
}
