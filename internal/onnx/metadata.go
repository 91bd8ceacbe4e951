package onnx

import (
	"fmt"
	"sort"

	ort "github.com/yalue/onnxruntime_go"
)

// Metadata 模型元数据快照
type Metadata struct {
	Producer    string
	GraphName   string
	Domain      string
	Description string
	Version     int64
	Custom      []KeyValue
}

// KeyValue 自定义元数据项
type KeyValue struct {
	Key   string
	Value string
}

// ReadMetadata 读取模型文件中的元数据，自定义项按键排序
func ReadMetadata(modelPath string) (*Metadata, error) {
	m, err := ort.GetModelMetadata(modelPath)
	if err != nil {
		return nil, fmt.Errorf("读取模型元数据失败: %w", err)
	}
	defer m.Destroy()

	md := new(Metadata)
	if md.Producer, err = m.GetProducerName(); err != nil {
		return nil, fmt.Errorf("读取 producer 失败: %w", err)
	}
	if md.GraphName, err = m.GetGraphName(); err != nil {
		return nil, fmt.Errorf("读取 graph 名称失败: %w", err)
	}
	if md.Domain, err = m.GetDomain(); err != nil {
		return nil, fmt.Errorf("读取 domain 失败: %w", err)
	}
	if md.Description, err = m.GetDescription(); err != nil {
		return nil, fmt.Errorf("读取描述失败: %w", err)
	}
	if md.Version, err = m.GetVersion(); err != nil {
		return nil, fmt.Errorf("读取版本失败: %w", err)
	}

	keys, err := m.GetCustomMetadataMapKeys()
	if err != nil {
		return nil, fmt.Errorf("读取自定义元数据失败: %w", err)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, ok, err := m.LookupCustomMetadataMap(k)
		if err != nil {
			return nil, fmt.Errorf("读取自定义元数据 %s 失败: %w", k, err)
		}
		if ok {
			md.Custom = append(md.Custom, KeyValue{Key: k, Value: v})
		}
	}
	return md, nil
}
