package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	// cd to the module root so relative paths (logs/, fleet.db) resolve the
	// same way in every package's tests
	//
	//   import (
	//     _ "liyu1981.xyz/robot-fleet-service/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
}
