package network

// Handler decides what to send back for bytes read from a client. data holds
// exactly what one read returned and is only valid during the call. A nil or
// empty reply sends nothing.
type Handler interface {
	HandleData(conn *Conn, data []byte) []byte
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(conn *Conn, data []byte) []byte

func (f HandlerFunc) HandleData(conn *Conn, data []byte) []byte {
	return f(conn, data)
}

// EchoHandler sends every read back to its sender unchanged. It is the
// default handler and stands in for real message decoding.
type EchoHandler struct{}

func (EchoHandler) HandleData(_ *Conn, data []byte) []byte {
	return data
}
