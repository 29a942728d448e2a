package client

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"net"
	"time"

	"hali/pkg/common"
	"hali/pkg/protocol"
)

// ErrNotFound reports a Get or Erase on an absent key.
var ErrNotFound = errors.New("key not found")

// ErrExists reports an Insert on a key the server already holds.
var ErrExists = errors.New("key already exists")

type Client struct {
	conn net.Conn
	addr string
}

func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		addr: addr,
	}, nil
}

func (c *Client) Insert(key common.KeyType, value common.ValueType) error {
	keyBuf := keyBytes(key)
	valBuf := valueBytes(value)

	if err := protocol.Encode(c.conn, protocol.OpInsert, keyBuf, valBuf); err != nil {
		return c.reconnectAndRetry(protocol.OpInsert, keyBuf, valBuf, ErrExists)
	}
	return c.expectOK(ErrExists)
}

func (c *Client) Get(key common.KeyType) (common.ValueType, error) {
	keyBuf := keyBytes(key)

	if err := protocol.Encode(c.conn, protocol.OpGet, keyBuf, nil); err != nil {
		data, err := c.reconnectAndRetryValues(protocol.OpGet, keyBuf, nil)
		if err != nil {
			return 0, err
		}
		return bytesValue(data), nil
	}

	pkg, err := protocol.Decode(c.conn)
	if err != nil {
		data, err := c.reconnectAndRetryValues(protocol.OpGet, keyBuf, nil)
		if err != nil {
			return 0, err
		}
		return bytesValue(data), nil
	}

	switch pkg.Op {
	case protocol.RespVal:
		return bytesValue(pkg.Value), nil
	case protocol.RespErr:
		return 0, ErrNotFound
	default:
		return 0, errors.New("unknown response")
	}
}

func (c *Client) Erase(key common.KeyType) error {
	keyBuf := keyBytes(key)

	if err := protocol.Encode(c.conn, protocol.OpErase, keyBuf, nil); err != nil {
		return c.reconnectAndRetry(protocol.OpErase, keyBuf, nil, ErrNotFound)
	}
	return c.expectOK(ErrNotFound)
}

func (c *Client) Stats() (map[string]interface{}, error) {
	if err := protocol.Encode(c.conn, protocol.OpStats, nil, nil); err != nil {
		data, err := c.reconnectAndRetryValues(protocol.OpStats, nil, nil)
		if err != nil {
			return nil, err
		}
		return decodeStats(data)
	}

	pkg, err := protocol.Decode(c.conn)
	if err != nil {
		data, err := c.reconnectAndRetryValues(protocol.OpStats, nil, nil)
		if err != nil {
			return nil, err
		}
		return decodeStats(data)
	}

	if pkg.Op == protocol.RespVal {
		return decodeStats(pkg.Value)
	}
	return nil, errors.New("stats failed")
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) expectOK(errResp error) error {
	pkg, err := protocol.Decode(c.conn)
	if err != nil {
		return err
	}
	if pkg.Op != protocol.RespOK {
		return errResp
	}
	return nil
}

func (c *Client) reconnectAndRetry(op byte, key, val []byte, errResp error) error {
	c.conn.Close()
	conn, err := net.DialTimeout("tcp", c.addr, 5*time.Second)
	if err != nil {
		return err
	}
	c.conn = conn

	if err := protocol.Encode(c.conn, op, key, val); err != nil {
		return err
	}
	return c.expectOK(errResp)
}

func (c *Client) reconnectAndRetryValues(op byte, key, val []byte) ([]byte, error) {
	c.conn.Close()
	conn, err := net.DialTimeout("tcp", c.addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	if err := protocol.Encode(c.conn, op, key, val); err != nil {
		return nil, err
	}

	pkg, err := protocol.Decode(c.conn)
	if err != nil {
		return nil, err
	}

	if pkg.Op == protocol.RespVal {
		return pkg.Value, nil
	}
	return nil, errors.New("operation failed or key not found")
}

func decodeStats(data []byte) (map[string]interface{}, error) {
	stats := map[string]interface{}{}
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func keyBytes(key common.KeyType) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(key))
	return buf
}

func valueBytes(val common.ValueType) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(val))
	return buf
}

func bytesValue(b []byte) common.ValueType {
	if len(b) < 8 {
		return 0
	}
	return common.ValueType(binary.BigEndian.Uint64(b))
}
