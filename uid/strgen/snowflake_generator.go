package strgen

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

type SnowflakeOptions struct {
	// 机器 id，为 nil 时取本机 IPv4 低 16 位
	MachineID *int64 `cfg:"machineID"`
	Prefix    string `cfg:"prefix"`
}

// SnowflakeGenerator 41 位毫秒时间戳 + 10 位机器 id + 12 位序列号，输出定长 19 位十进制
type SnowflakeGenerator struct {
	state     int64
	machineID int64
	epoch     int64
	prefix    string
	now       func() int64
}

const (
	sequenceBits  = 12
	machineIDBits = 10

	maxSequence  = (1 << sequenceBits) - 1
	maxMachineID = (1 << machineIDBits) - 1

	machineIDShift = sequenceBits
	timestampShift = sequenceBits + machineIDBits
)

var snowflakeEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

func NewSnowflakeGeneratorWithOptions(options *SnowflakeOptions) *SnowflakeGenerator {
	if options == nil {
		options = &SnowflakeOptions{}
	}
	machineID := machineIDFromIP()
	if options.MachineID != nil {
		machineID = *options.MachineID
	}

	g := &SnowflakeGenerator{
		machineID: machineID & maxMachineID,
		epoch:     snowflakeEpoch,
		prefix:    options.Prefix,
		now:       func() int64 { return time.Now().UnixMilli() },
	}
	g.state = (g.now() - g.epoch) << sequenceBits
	return g
}

func machineIDFromIP() int64 {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return 0
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipv4 := ipnet.IP.To4(); ipv4 != nil {
				return int64(ipv4[2])<<8 | int64(ipv4[3])
			}
		}
	}
	return 0
}

// Next 生成 int64 形式的 id，时钟回拨时沿用上一个时间戳，保证单调
func (g *SnowflakeGenerator) Next() int64 {
	for {
		oldState := atomic.LoadInt64(&g.state)
		oldTimestamp := oldState >> sequenceBits
		oldSequence := oldState & maxSequence

		timestamp := g.now() - g.epoch
		if timestamp < oldTimestamp {
			timestamp = oldTimestamp
		}

		sequence := int64(0)
		if timestamp == oldTimestamp {
			sequence = (oldSequence + 1) & maxSequence
			if sequence == 0 {
				for timestamp <= oldTimestamp {
					timestamp = g.now() - g.epoch
				}
			}
		}

		newState := timestamp<<sequenceBits | sequence
		if atomic.CompareAndSwapInt64(&g.state, oldState, newState) {
			return timestamp<<timestampShift | g.machineID<<machineIDShift | sequence
		}
	}
}

func (g *SnowflakeGenerator) Generate() string {
	return fmt.Sprintf("%s%019d", g.prefix, g.Next())
}
