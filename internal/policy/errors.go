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

package policy

import "fmt"

// CompileError is returned when a policy document fails to load because a
// rule is structurally invalid (missing id, malformed action, ...).
type CompileError struct {
	PolicySetID string
	Reason      string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("policy: failed to compile policy set %s: %s", e.PolicySetID, e.Reason)
}

func (e *CompileError) Code() string { return "POLICY_COMPILE_ERROR" }
