/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package imagegen

import (
	"fmt"
	"strings"
)

// DefaultHouseStyle is applied to every render. %s placeholders receive the
// project style and the project context, in that order.
const DefaultHouseStyle = `PREMIUM PRESTIGE COMIC BOOK ART STYLE. Professional high-end digital illustration for THE MYSTERY BD MACHINE.
- Technical Details: Clean ink line-work, vibrant colors, dynamic Marvel/DC action composition.
- MANDATORY COLOR THEME: You MUST integrate Turquoise (#00E5FF), Neon Pink (#FF007F), and Yellow Dijon (#D1A110) as prominent artistic accents.
- Lighting: Cyberpunk-esque with soft neon glow reflections.
- Shading: High-end studio look with subtle halftone textures.
- Style Descriptor: %s.
- Universe Lore: %s.`

// ComposePrompt merges a request into the instruction text sent to the model.
func ComposePrompt(houseStyle string, req Request) string {
	if strings.TrimSpace(houseStyle) == "" {
		houseStyle = DefaultHouseStyle
	}
	var guide string
	if strings.Count(houseStyle, "%s") == 2 {
		guide = fmt.Sprintf(houseStyle, req.Style, req.Context)
	} else {
		guide = fmt.Sprintf("%s\n- Style Descriptor: %s.\n- Universe Lore: %s.", houseStyle, req.Style, req.Context)
	}

	var b strings.Builder
	if req.Refinement {
		fmt.Fprintf(&b, "IMAGE MODIFICATION REQUEST (PATCH UPDATE).\nINSTRUCTION: %s.\n", req.Prompt)
		b.WriteString("CRITICAL RULE: Maintain the EXACT SAME character models, composition, and art style of the provided reference image. ONLY apply the specific change requested.\n")
		b.WriteString("Emphasize the Neon Pink (#FF007F) accents where relevant.\n")
	} else {
		fmt.Fprintf(&b, "SCENE DESCRIPTION: %s.\n", req.Prompt)
		b.WriteString("Artistically blend Turquoise (#00E5FF) and Neon Pink (#FF007F) into the composition.\n")
		if len(req.Characters) > 0 {
			b.WriteString("CHARACTERS:\n")
			for _, c := range req.Characters {
				fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Personality)
			}
		}
	}
	b.WriteString("Style Guide: ")
	b.WriteString(guide)
	return b.String()
}
