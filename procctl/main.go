// Copyright 2026 The Procshim Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command procctl asks a procshim server to start, stop or restart
// processes.
//
// The flags are
//
//	--addr <url>     - server address, default is http://127.0.0.1:8322
//	--secret <s>     - shared secret, default is $PROCSHIM_SECRET
//	--timeout <d>    - how long to wait for the server, default 30s
//
// Subcommands are
//
//	start <target>   - start the named process, id, or "all"
//	stop <target>    - stop the named process, id, or "all"
//	restart <target> - restart the named process, id, or "all"
package main

import (
	"fmt"
	"os"
)

func main() {
	if e := newRootCmd().Execute(); e != nil {
		fmt.Fprintf(os.Stderr, "Failed: %v\n", e)
		os.Exit(1)
	}
}
