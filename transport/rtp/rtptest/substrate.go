// Package rtptest provides a fake Substrate and composable packet checkers
// for exercising transport/rtp sessions without a real network or real
// stdin/stdout, in the same spirit as the teacher's
// transport/tcp/testing/context harness (a stand-in collaborator a test
// can drive and inspect) and its checker package (composable assertion
// functions over a decoded packet).
package rtptest

import (
	"sync"

	"github.com/relaysystems/reliudp/transport/rtp"
)

// FakeSubstrate is a Substrate entirely driven by the test: datagrams
// "sent" by the session under test land in Sent for inspection (or
// dropping, to simulate loss); input bytes are queued with FeedInput;
// output capacity is configured with SetOutputSpace.
type FakeSubstrate struct {
	mu sync.Mutex

	Sent [][]byte

	input    []byte
	inputEOF bool

	outputSpace int
	Output      []byte
}

// NewFakeSubstrate creates a substrate with unlimited output space and no
// queued input.
func NewFakeSubstrate() *FakeSubstrate {
	return &FakeSubstrate{outputSpace: 1 << 30}
}

// SendDatagram implements rtp.DatagramSender.
func (f *FakeSubstrate) SendDatagram(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), b...)
	f.Sent = append(f.Sent, cp)
	return nil
}

// FeedInput queues bytes to be returned by ReadInput.
func (f *FakeSubstrate) FeedInput(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = append(f.input, b...)
}

// CloseInput marks the input as exhausted; the next ReadInput call (once
// queued bytes are drained) reports EOF.
func (f *FakeSubstrate) CloseInput() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputEOF = true
}

// ReadInput implements rtp.InputReader.
func (f *FakeSubstrate) ReadInput(buf []byte) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.input) == 0 {
		if f.inputEOF {
			return 0, true, nil
		}
		return 0, false, nil
	}

	n := copy(buf, f.input)
	f.input = f.input[n:]
	return n, false, nil
}

// SetOutputSpace configures how much free space OutputSpace reports.
func (f *FakeSubstrate) SetOutputSpace(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputSpace = n
}

// OutputSpace implements rtp.OutputWriter.
func (f *FakeSubstrate) OutputSpace() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outputSpace
}

// WriteOutput implements rtp.OutputWriter.
func (f *FakeSubstrate) WriteOutput(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Output = append(f.Output, b...)
	return nil
}

// TakeSent drains and returns every datagram sent so far.
func (f *FakeSubstrate) TakeSent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	sent := f.Sent
	f.Sent = nil
	return sent
}

var _ rtp.Substrate = (*FakeSubstrate)(nil)
