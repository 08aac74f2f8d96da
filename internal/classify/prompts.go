package classify

// summarizePrompt steers the model toward a single strict JSON object so the
// response can be decoded without guessing.
const summarizePrompt = `你是科技编辑。判断文章类别并生成中文标题和摘要。

类别：AI（人工智能/ML/LLM）、科技（开发/云计算/硬件/安全）、商业（科技公司/创业/投资）、其他。
非科技类直接返回 is_relevant=false，title/summary 留空。

JSON 格式（不要添加其他内容）：
{"category": "AI/科技/商业/其他", "is_relevant": true/false, "title": "中文标题(≤30字)", "summary": "一句话摘要(≤80字)"}`

// detailPrompt requests the long-form reading shown on the digest page.
const detailPrompt = `你是资深科技编辑。用5-8句话写完整中文解读：第一段讲文章内容，第二段提炼核心观点/数据，第三段说对从业者的启发。专有名词保留英文（GPT、Transformer、Rust等）。只输出解读文本，不加其他内容。`
