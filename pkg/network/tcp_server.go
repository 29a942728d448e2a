package network

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"log"
	"net"

	"hali/pkg/common"
	"hali/pkg/core"
	"hali/pkg/protocol"
)

type TCPServer struct {
	store *core.Store
}

func NewTCPServer(store *core.Store) *TCPServer {
	return &TCPServer{store: store}
}

func (s *TCPServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("[TCP] Listening on %s (Binary Protocol)", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("[TCP] Accept error: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *TCPServer) handleConn(conn net.Conn) {
	defer conn.Close()

	for {
		req, err := protocol.Decode(conn)
		if err != nil {
			if err != io.EOF {
				// connection dropped mid-frame; nothing to answer
			}
			return
		}

		switch req.Op {
		case protocol.OpInsert:
			k := bytesToKey(req.Key)
			v := bytesToValue(req.Value)
			if s.store.Put(k, v) {
				protocol.Encode(conn, protocol.RespOK, nil, nil)
			} else {
				protocol.Encode(conn, protocol.RespErr, nil, []byte("Exists"))
			}

		case protocol.OpGet:
			k := bytesToKey(req.Key)
			val, found := s.store.Get(k)
			if found {
				protocol.Encode(conn, protocol.RespVal, nil, valueToBytes(val))
			} else {
				protocol.Encode(conn, protocol.RespErr, nil, []byte("Not Found"))
			}

		case protocol.OpErase:
			k := bytesToKey(req.Key)
			if s.store.Delete(k) {
				protocol.Encode(conn, protocol.RespOK, nil, nil)
			} else {
				protocol.Encode(conn, protocol.RespErr, nil, []byte("Not Found"))
			}

		case protocol.OpStats:
			data, err := json.Marshal(s.store.Stats())
			if err != nil {
				protocol.Encode(conn, protocol.RespErr, nil, []byte(err.Error()))
				continue
			}
			protocol.Encode(conn, protocol.RespVal, nil, data)
		}
	}
}

func bytesToKey(b []byte) common.KeyType {
	if len(b) < 8 {
		return 0
	}
	return common.KeyType(binary.BigEndian.Uint64(b))
}

func bytesToValue(b []byte) common.ValueType {
	if len(b) < 8 {
		return 0
	}
	return common.ValueType(binary.BigEndian.Uint64(b))
}

func valueToBytes(v common.ValueType) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}
