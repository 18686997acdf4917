// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import "github.com/governex-labs/workflow-orchestrator/shared/logger"

// NewLogger builds a component logger following the bracketed-tag
// convention used throughout this module (e.g. "[SLA]", "[RESOLVER]",
// "[PROVISION]", "[ASSEMBLER]"). component should be the package name the
// caller lives in, e.g. "sla-manager" or "provisioning-gate".
func NewLogger(component string) *logger.Logger {
	return logger.New(component)
}
