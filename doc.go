// Package scale reads weight values from a serial-attached scale.
//
// The scale speaks a simple request/response protocol: the host sends ENQ
// (0x05) and the scale answers with its current reading framed as
// STX (0x02) <payload> ETX (0x03). The payload is device-defined text and is
// passed through untouched.
//
// Features:
//   - Raw 9600-8-N-1 serial link with exclusive access and bounded reads
//   - Frame extraction that survives frames split across reads
//   - Fixed 200ms poll cadence
//   - Signal-driven release of the port before the process exits
//
// Example usage:
//
//	coord := scale.NewShutdownCoordinator()
//	coord.Register()
//	defer coord.Stop()
//
//	d := scale.NewDriver("ttyUSB0", os.Stdout, scale.WithOnOpen(coord.Attach))
//	if err := d.Run(context.Background()); err != nil {
//	    log.Println("scale:", err)
//	}
//	coord.Release()
//
// The link can also be driven by hand:
//
//	link, err := scale.Open(scale.Config{Device: "ttyUSB0"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer link.Close()
//
//	var ext scale.Extractor
//	buf := make([]byte, scale.ReadBufferSize)
//	link.Write([]byte{scale.ENQ})
//	n, _ := link.Read(buf)
//	for _, frame := range ext.Frames(buf[:n]) {
//	    fmt.Println(string(frame))
//	}
package scale
