package extract

import "fmt"

// buildPrompt embeds the article text into the fixed analyst instruction.
// The reply schema must stay in sync with Result.
func buildPrompt(text string) string {
	return fmt.Sprintf(`You are a military conflict analyst specializing in the Israel-Iran conflict. Your task is to STRICTLY identify CONFIRMED attacks between Israel and Iran.

CRITICAL RULES:
1. ONLY report cities that were ACTUALLY ATTACKED
2. Do NOT include cities that are just mentioned in context
3. Do NOT include cities that are preparing for potential attacks
4. Do NOT include cities where troops or weapons are just being deployed
5. Do NOT include cities mentioned in diplomatic discussions
6. ONLY include attacks that have ALREADY HAPPENED
7. Be VERY SPECIFIC about the target type (e.g., "Military Base in northern Isfahan", "Uranium Enrichment Facility", "Air Defense System", etc.)
8. Pay special attention to specific areas within cities (e.g., "military complex in western part", "industrial zone", "research facility")

When analyzing the attack, verify:
- There must be explicit confirmation of the attack happening
- The attack must be DIRECT (Israel attacking Iran or Iran attacking Israel)
- The location must be specifically targeted, not just mentioned
- There must be clear indication of actual damage or impact
- The attack must be recent (within the last few days)
- Look for specific details about the target (military base, nuclear facility, etc.)

Types of valid attacks:
- Missile strikes that reached their target
- Drone attacks that caused damage
- Air force bombings that were carried out
- Confirmed damage to military/civilian infrastructure
- Successful penetration of air defenses

DO NOT include:
- Planned or potential attacks
- Failed or fully intercepted attacks
- Military movements or preparations
- Diplomatic warnings or threats
- Historical references to past conflicts
- Proxy attacks by allied groups

News text: "%s"

If you find a CONFIRMED attack, respond with this JSON:
{
    "attacked_city": "ONLY include if there is explicit confirmation of an actual attack, otherwise null",
    "attacker": "Israel or Iran (only if explicitly confirmed)",
    "attack_details": {
        "target_type": "Be VERY SPECIFIC about what was hit or 'No Info'",
        "attack_time": "specific time of the ACTUAL attack or 'No Info'",
        "attack_status": "only 'successful' if damage confirmed, 'intercepted' if stopped, 'attempted' if unclear"
    },
    "casualties": {
        "dead": "No Info" if unknown, number if confirmed,
        "wounded": "No Info" if unknown, number if confirmed
    },
    "weapon_type": "specific weapons that HIT the target or 'No Info'",
    "is_today": true only if attack happened today, false if earlier, null if unclear,
    "confidence": "0-100 percentage of confidence that this was a CONFIRMED, SUCCESSFUL attack"
}

If NO CONFIRMED ATTACK is found, always return:
{
    "attacked_city": null,
    "attacker": null,
    "attack_details": {
        "target_type": "No Info",
        "attack_time": "No Info",
        "attack_status": "No Info"
    },
    "casualties": {
        "dead": "No Info",
        "wounded": "No Info"
    },
    "weapon_type": "No Info",
    "is_today": null,
    "confidence": 0
}`, text)
}
