package source

import (
	"bytes"
	"context"
	"net"
	"sync"
	"time"

	"motiontracker/internal/logger"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

const maxDatagramSize = 65536

// maxFrameSize caps a partially assembled frame; anything larger is discarded.
const maxFrameSize = 4 << 20

// frameAssembler rebuilds JPEG frames split over several datagrams.
// A datagram starting with SOI resets the frame, one ending with EOI completes it.
// A zero limit means maxFrameSize.
type frameAssembler struct {
	buf   bytes.Buffer
	limit int
}

func (a *frameAssembler) push(data []byte) ([]byte, bool) {
	if bytes.HasPrefix(data, jpegHeader) {
		a.buf.Reset()
	}
	limit := a.limit
	if limit <= 0 {
		limit = maxFrameSize
	}
	if a.buf.Len()+len(data) > limit {
		a.buf.Reset()
		return nil, false
	}
	a.buf.Write(data)

	if !bytes.HasSuffix(data, jpegFooter) {
		return nil, false
	}
	if !bytes.HasPrefix(a.buf.Bytes(), jpegHeader) {
		// tail of a frame whose start was lost
		a.buf.Reset()
		return nil, false
	}

	frame := make([]byte, a.buf.Len())
	copy(frame, a.buf.Bytes())
	a.buf.Reset()
	return frame, true
}

// UDPSource receives JPEG frames pushed over UDP. It locks onto the first
// sender that completes a frame, so the pipeline only ever sees one feed,
// and keeps only the most recent complete frame.
type UDPSource struct {
	conn      *net.UDPConn
	frames    chan []byte
	timeout   time.Duration
	logger    *logger.Logger
	sender    string
	done      chan struct{}
	closeOnce sync.Once
}

// ListenUDP starts receiving frames on port. Pull waits at most timeout for a frame.
func ListenUDP(port int, timeout time.Duration, logger *logger.Logger) (*UDPSource, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, errors.Wrapf(err, "listen on UDP port %d", port)
	}

	s := &UDPSource{
		conn:    conn,
		frames:  make(chan []byte, 1),
		timeout: timeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go s.receive()

	logger.Info("UDP frame source listening on %s", conn.LocalAddr())
	return s, nil
}

// Addr returns the local listening address.
func (s *UDPSource) Addr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *UDPSource) receive() {
	defer close(s.frames)

	buffer := make([]byte, maxDatagramSize)
	assemblers := make(map[string]*frameAssembler)
	ignored := make(map[string]bool)

	for {
		n, remoteAddr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		sender := remoteAddr.String()
		if s.sender != "" && sender != s.sender {
			if !ignored[sender] {
				ignored[sender] = true
				s.logger.Warning("Ignoring frames from %s, already tracking %s", sender, s.sender)
			}
			continue
		}

		assembler, ok := assemblers[sender]
		if !ok {
			assembler = &frameAssembler{}
			assemblers[sender] = assembler
		}

		frame, complete := assembler.push(buffer[:n])
		if !complete {
			continue
		}
		if s.sender == "" {
			s.sender = sender
			assemblers = map[string]*frameAssembler{sender: assembler}
			s.logger.Info("UDP frame source locked onto %s", sender)
		}
		s.offer(frame)
	}
}

// offer replaces any frame still waiting to be pulled.
func (s *UDPSource) offer(frame []byte) {
	select {
	case s.frames <- frame:
		return
	default:
	}
	select {
	case <-s.frames:
	default:
	}
	select {
	case s.frames <- frame:
	default:
	}
}

// Pull waits for the next complete frame and decodes it.
func (s *UDPSource) Pull(ctx context.Context) (gocv.Mat, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	var data []byte
	select {
	case <-ctx.Done():
		return gocv.Mat{}, ctx.Err()
	case <-timer.C:
		return gocv.Mat{}, ErrNoFrame
	case frame, ok := <-s.frames:
		if !ok {
			return gocv.Mat{}, ErrSourceClosed
		}
		data = frame
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		s.logger.Warning("Dropping undecodable frame: %v", err)
		return gocv.Mat{}, ErrNoFrame
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, ErrNoFrame
	}
	return mat, nil
}

// Close stops receiving. Pending and later pulls report ErrSourceClosed.
func (s *UDPSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
