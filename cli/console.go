package cli

import (
	"fmt"
	"io"
)

// Console adapters stand in for robot hardware when the brain runs in
// a plain terminal. Motion commands and relayed payloads are printed
// instead of transmitted, so physical plans stay executable.

// ConsoleMover prints motion commands to the given writer.
type ConsoleMover struct {
	Out io.Writer
}

// SendCommand writes the command line that would go to the motion
// controller.
func (m *ConsoleMover) SendCommand(command string) error {
	_, err := fmt.Fprintf(m.Out, "[motion] %s\n", command)
	return err
}

// ConsoleRelay prints relayed payloads to the given writer.
type ConsoleRelay struct {
	Out io.Writer
}

// SendToClient writes the payload that would go to the connected
// perception device.
func (r *ConsoleRelay) SendToClient(payload any) error {
	_, err := fmt.Fprintf(r.Out, "[relay] %+v\n", payload)
	return err
}
