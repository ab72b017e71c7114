package snowflake

import (
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once

	errInvalidMachineID    = errors.New("invalid snowflake machine id")
	errInvalidDataCenterID = errors.New("invalid snowflake datacenter id")
	errGeneratorUninitial  = errors.New("snowflake generator is not initialized")
)

// Init 节点号由 datacenterID(高 5 位) 和 machineID(低 5 位) 组成
func Init(machineID, dataCenterID int64) error {
	var initErr error

	once.Do(func() {
		if machineID < 0 || machineID > 31 {
			initErr = errInvalidMachineID
			return
		}
		if dataCenterID < 0 || dataCenterID > 31 {
			initErr = errInvalidDataCenterID
			return
		}

		node, initErr = snowflake.NewNode((dataCenterID << 5) | machineID)
	})

	return initErr
}

func NextID() (int64, error) {
	if node == nil {
		return 0, errGeneratorUninitial
	}

	return node.Generate().Int64(), nil
}

// NextString 会话 id 使用十进制字符串对外暴露
func NextString() (string, error) {
	if node == nil {
		return "", errGeneratorUninitial
	}

	return node.Generate().String(), nil
}

// Parse 校验外部传入的会话 id
func Parse(id string) (int64, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return 0, err
	}
	return parsed.Int64(), nil
}
