package pool

import "github.com/BurntSushi/toml"

func decodeTOMLFile(path string, v interface{}) error {
	_, err := toml.DecodeFile(path, v)
	return err
}
