// Package prompts builds the LLM prompt text for every pipeline stage. The
// house style lives here: the article prompts carry a shared block of
// writing-style rules, and the image prompts carry the infographic style
// spec. Prompt text is Chinese where the output is Chinese.
package prompts

import (
	"fmt"
	"strings"
)

// Input caps keep prompt sizes inside model context limits.
const (
	maxStorylineResearch = 50_000
	maxArticleResearch   = 80_000
	maxReferenceArticle  = 10_000
)

// writingStyle is the shared house-style rule block appended to the article
// generation and polish prompts.
const writingStyle = `
行文逻辑要求(重要):使用总分结构,遵循
1)每个话题先给出总论述段落(包含结论与分论点总述),再用数个平行的段落展开论述总论述中提到的分论点(每个分论点另起一段)
2)观点先行,每段论述中第一句话必须用简单平直的语言表达该段落的核心观点,并加粗
3) 所有判断必须对应以下至少一类证据：
   - 生物学机制
   - 临床数据
   - 已上市或失败药物的先例

行文格式与风格要求:
1)（重要）全篇语言风格要冷静、理性,避免宏大叙事,专注商业事实与逻辑
2)（重要）禁止使用目录式的词组列举,都需要写成完整的句子,但不宜使用过长的复合句,易读性优先
3)（重要）必须使用整段的文字,但一个段落需要说明一个观点/ 事实,单段落不需要过长
4)（重要）避免过多地使用比喻/ 排比等修辞手法,禁止生造概念(避免使用双引号),禁止堆砌形容词
5)"这个"/"这种"等表达替换为"此类"
6)避免"不仅、还"及类似的表述,直接用并列的形式写相关内容
7)在多个小的观点/ 事实并列时,在论述段落后使用bullet列举
8)避免使用"唯一"/ "只能"/"最"等绝对性的表述,必须客观公正
9)避免使用"深远""较大"等表意不明的冗余形容词
10)不使用顿号,只使用"/ "做并列概念分隔
11)所有能被数据支撑的观点表述需要使用括号提示数据支撑
12)禁止使用"体现了"/"彰显了"等表述,改用更客观的表述方法
13)在信息复杂,涉及到对比、演进路线时,需要使用文字+表格的形式
14)禁止使用诸如"三大标准"/ "两大主流方向"/ "两大维度"之类表达
15) 禁止使用任何投资或推广性语言
16) 禁止使用未经限定的因果表达
17) 禁止以公司表述替代事实表述
18) 所有临床结果必须明确Phase、样本量、对照方式
19) 对于尚未验证的推论，必须明确标注为"尚未被临床验证"
20) 不允许省略负面或中性结果
`

// truncate caps s at max runes. Prompt caps count characters, not bytes, so
// multi-byte Chinese text is not cut short.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Framework builds the research framework prompt for a company. The output
// is an 11-section analysis framework; section 11 (关键风险) marks where the
// framework splits into upper and lower parts downstream.
func Framework(companyName string) string {
	return fmt.Sprintf(`你是一位资深的biotech行业研究员。请为以下生物科技公司生成一份完整的研究框架，用于指导后续的深度研究。

## 公司名称：%s

## 输出要求：
研究框架必须包含以下11个编号章节，每个章节给出需要研究的具体问题清单（每章3-6个问题）：

1. **公司概况与发展历程**
2. **核心技术平台与科学基础**
3. **管线布局与开发阶段**
4. **核心适应症的疾病背景与未满足需求**
5. **关键临床数据解读**
6. **竞争格局与同类药物对比**
7. **商业化路径与市场空间**
8. **合作伙伴与授权交易**
9. **财务状况与融资历史**
10. **管理团队与科学顾问**
11. **关键风险（Key Risks）**

## 格式要求：
- 使用Markdown格式
- 每个章节标题保留编号（如"11. **关键风险**"）
- 问题必须具体、可研究，指向可验证的事实
- 禁止使用营销性语言

请直接输出研究框架：`, companyName)
}

// Storyline builds the storyline prompt over the research material.
func Storyline(researchText string) string {
	return fmt.Sprintf(`我正在为一家生物科技公司的研究报告撰写一份研究综述。
请基于以下研究资料，输出一个能够统领全文的biotech研究storyline（180字内）。

## 研究资料：
%s

## 强制要求：
1. storyline必须包含一个结论性主题句，以及最多4个关键研究议题：
   主题句：
   议题1：
   议题2：
   议题3：
   议题4：

2. 主题句必须明确回答：
   "这家公司是否在科学与临床上具备成立基础"

3. 所有判断必须可追溯至机制、临床或已知同类药物数据
4. 禁止使用宏大或愿景型表述
5. 字数不超过180字
6. 直接输出storyline文本

请严格遵循要求输出storyline：`, truncate(researchText, maxStorylineResearch))
}

// Article builds the full article generation prompt.
func Article(companyName, storyline, researchText, referenceArticle string) string {
	var reference string
	if referenceArticle != "" {
		reference = fmt.Sprintf("## 参考文章（具体行文格式可参考此文）：\n%s\n\n",
			truncate(referenceArticle, maxReferenceArticle))
	}

	return fmt.Sprintf(`Please think in English and output in Chinese.
You are writing for professional biotech investors and industry experts. Give yourself more time to think before you start writing.

请严格遵循每条写作要求，依据以下【Storyline】写一篇适合传播且具备专业性的微信公众号公关稿。

## Storyline（文章核心叙事线）：
%s

%s## 研究资料（必须全部涵盖，不得遗漏重要信息）：
%s

## 公司名称：%s

## 写作要求：

### 信息完整性（重要）
- 必须涵盖研究资料中的所有技术、商业模式、产业相关的关键细节
- 所有数字/ 百分比/ 金额/ 时间节点等硬核数据必须保留
- 竞争对比分析必须完整呈现
- 技术细节/ 商业模式/ 融资情况等核心内容不可省略
- 不得遗漏任何临床阶段、关键数据或失败信息
- 所有机制解释必须服务于临床结论
- 不得假设未来成功

### 篇幅与结构要求
- 文章字数必须在7000字以上，开头控制在200字内，标题要简短、引人玩味
- 使用清晰的标题层级结构，章节标题无需序号
- （重要）文章标题、章节标题禁止使用目录式的名词列举，必须用短句抛出观点/ 问题
- 文章结尾无需结语

### 输出格式要求
- 输出Markdown格式
- 必须保留所有表格（使用Markdown表格语法）
- 所有缩写首次出现必须解释
%s
请直接输出Markdown格式的文章：`,
		storyline, reference, truncate(researchText, maxArticleResearch), companyName, writingStyle)
}

// Polish builds the second-pass polish prompt. The length requirement pins
// the output to the draft's character count within ten percent.
func Polish(articleMarkdown, referenceArticle string) string {
	originalLen := len([]rune(articleMarkdown))

	var reference string
	if referenceArticle != "" {
		reference = fmt.Sprintf("## 参考文章（具体行文格式可参考此文）：\n%s\n\n",
			truncate(referenceArticle, maxReferenceArticle))
	}

	return fmt.Sprintf(`Please think in English and output in Chinese. Give yourself more time to think before you start writing.

你是一位资深的投资分析公众号编辑。请对以下初稿文章进行二次润色，严格按照写作要求调整格式和风格。

## 【最重要】字数要求：
- 原文字数约 %d 字
- 润色后的文章必须保持相近的字数（允许±10%%浮动）
- 不要大幅缩减内容，也不要过度扩充

%s## 待润色的初稿文章（约%d字）：
%s

## 润色要求：

### 内容优化
- 保留原文所有关键信息/ 数据/ 论点，绝对不要删减核心内容
- 优化段落结构和逻辑连贯性
- 增强论述的深度和说服力
- 使用更精准/ 更有力的表达

### 格式要求
- 输出Markdown格式
- 保留所有表格
- 使用清晰的标题层级结构
%s
请直接输出润色后的Markdown格式文章：`,
		originalLen, reference, originalLen, articleMarkdown, writingStyle)
}

// MarkImageText builds the prompt that marks illustration-worthy spans in
// the article with delimiters while leaving all other text untouched.
func MarkImageText(articleMarkdown string) string {
	return fmt.Sprintf(`Please think in English and output in Chinese. Give yourself more time to think before you start writing.
第一步：通读全文，仅筛选**在生物学、临床或药物开发层面信息密度过高**、不适合用纯文字理解的段落或表格。

你只能选择满足以下至少一项条件的内容：
1. 机制路径、靶点作用逻辑、信号通路描述
2. 临床试验设计（入组标准、终点、分组）
3. 临床结果的数据性总结（有效性 / 安全性）
4. 管线结构、适应症扩展逻辑
5. 多药物 / 多机制的对比信息
6. 所有表格（必须选）

第二步：在原文中，用【【【】】】标记你选择的段落或表格，其余文字**一个字都不要改**。

第三步：在每个被标记段落前，用不超过100字的中文，概括该段落**希望通过图示澄清的科学或临床问题**。
概括必须是完整句子，不得使用营销或宣传语言。

第四步：输出添加了概括说明和【【【】】】标记的全文。

注意：
- 禁止选择纯叙事性、判断性、结论性段落
- 禁止为了"好看"而选择内容

输出示例：

...原文...
三句完整的话概括
【【【你筛选出的段落】】】
...原文...

# 输入文章：
%s

请开始处理：`, articleMarkdown)
}

// BlockImagePrompt builds the per-block prompt that distills one marked
// paragraph into an English image-generation prompt.
func BlockImagePrompt(content, summary string) string {
	return fmt.Sprintf(`Please think in English and output in English.

你的任务是：从以下段落中，提取**适合用科学示意图或数据图表表达的信息结构**。

段落内容：
%s

概括：
%s

提取时，必须优先考虑以下类型（按优先级）：
1. 生物学机制结构（靶点 / 通路 / 作用关系）
2. 临床试验结构（分组、终点、时间线）
3. 临床数据结构（数值、比例、变化趋势）
4. 管线与适应症对应关系

请输出一个简洁的英文图片生成提示词（50-100词），描述应该生成什么样的科学插图。

禁止事项：
- 禁止生成抽象概念图
- 禁止生成"愿景型""总结型"图示
- 禁止补充原文中不存在的数据或结构

直接输出提示词：`, content, summary)
}

// themeConcepts maps Chinese biotech concepts found in the title or summary
// to a cover illustration phrase. First match wins, in declaration order of
// the more specific entries.
var themeConcepts = []struct {
	keyword string
	phrase  string
}{
	{"肿瘤免疫", "immune cells interacting with cancer cells, educational scientific style"},
	{"肿瘤", "schematic representation of tumor cells and immune interaction"},
	{"自身免疫", "immune dysregulation illustrated through immune cell signaling pathways"},
	{"神经疾病", "simplified neuronal networks and synaptic structures"},
	{"罕见病", "genetic pathways and cellular dysfunction illustrated in a medical textbook style"},
	{"炎症", "inflammatory signaling pathways at cellular level"},
	{"代谢疾病", "metabolic pathways illustrated with organs and molecular interactions"},
	{"单克隆抗体", "antibody structures binding to specific targets, clean scientific illustration"},
	{"双特异性抗体", "dual-binding antibody schematic interacting with two targets"},
	{"ADC", "antibody-drug conjugate structure showing linker and payload relationship"},
	{"小分子", "small molecule interacting with protein binding pocket, schematic view"},
	{"基因治疗", "gene delivery vectors interacting with cellular nucleus, educational style"},
	{"RNA疗法", "RNA strands interacting with cellular machinery"},
	{"CAR-T", "CAR-T cell recognizing and binding to tumor antigen"},
	{"细胞治疗", "engineered immune cells interacting with target cells"},
	{"疫苗", "antigen presentation and immune activation schematic"},
}

const defaultTheme = "minimalist scientific illustration inspired by biology and medicine, neutral academic research tone"

// ThemeKeywords picks the cover illustration theme phrase for the article's
// title and summary.
func ThemeKeywords(text string) string {
	for _, c := range themeConcepts {
		if strings.Contains(text, c.keyword) {
			return c.phrase
		}
	}
	return defaultTheme
}

// Cover builds the cover image generation prompt.
func Cover(title, summary string) string {
	theme := ThemeKeywords(title + " " + summary)

	return fmt.Sprintf(`A clean, professional cover image suitable for a biotech research report.

Theme:
%s

Visual style:
- Minimalist, restrained, research-oriented
- Soft, neutral color palette
- Flat or lightly dimensional scientific illustration style

Allowed elements:
- Molecular structures (schematic, not photorealistic)
- Cells, antibodies, proteins (simplified, educational)
- Abstract biological patterns with clear scientific reference

Strict prohibitions:
- No futuristic cityscapes
- No holograms, data streams, or glowing effects
- No people, faces, or body parts
- No text, numbers, logos

The image should convey scientific seriousness and analytical intent, not innovation hype.`, theme)
}

// BlockImage wraps a distilled image prompt with the full infographic style
// spec used for in-article figures.
func BlockImage(imagePrompt string) string {
	return fmt.Sprintf(`Generate Image: Create a professional scientific infographic or data visualization
using ONLY the information explicitly provided in the Image Block Content.

Image Block Content is the sole source of truth for this image.
You may only reorganize, summarize, and visualize what is already present
in the Image Block Content.

Content focus:
%s

Use the Image Block Content to define the topic and structure the overall thought.

MUST Follow the Given "Style Spec".
Be thoughtful and exhaustive strictly within the bounds of the Image Block Content.
Minimize ALL textual redundancies in the output.
Avoid ALL ambiguities.

Hard Constraint:
Do NOT introduce any facts, numbers, names, categories, interpretations,
or claims that are not explicitly present in the Image Block Content.

Design requirements:
- Purpose: clarify biological mechanism, clinical trial structure, or data relationship
- Style: clean, academic, neutral
- Color usage: restrained, functional (no neon, no dramatic contrast)
- Visual language: suitable for inclusion in a scientific or equity research report

If applicable:
- Clearly label components (e.g. target, pathway step, treatment arm)
- Use arrows only to indicate causal or procedural relationships
- Maintain logical hierarchy and readability

Strict prohibitions:
- No futuristic or abstract visuals
- No cityscapes, light effects, or technology aesthetics
- No decorative icons
- No exaggeration or dramatization

The image must be interpretable as a scientific explanatory figure,
not a marketing or summary graphic.

Source Line Rule (MUST):
1. In the footer source position, output a single line beginning with 来源：.
2. Automatically extract and list all explicitly mentioned sources from the Image Block Content
   (e.g., 年报/财报/招股书/公告/官网/研报/数据库/统计机构/媒体与报告标题等).
3. De-duplicate extracted sources while preserving first-appearance order.
4. Use the Chinese semicolon ； to separate items.
5. Always end the source line with 桌面研究；久谦中台 (exactly once).
6. If no explicit sources are found, output exactly:
   来源：桌面研究；久谦中台
7. Do NOT add quotation marks anywhere in the source line.

Style Spec:
1. Purpose and tone: professional, authoritative infographic using a flat aesthetic; data-first layouts with consistent rules so all agents produce identical outputs. All visible text must be in Simplified Chinese (titles, labels, legends, footnotes, sources, and annotations).
2. Canvas and layout: 16:9 aspect (default 1920x1080 px). Margins 24 px on all sides. Chart Title headline at top-left with optional subtitle below. Chart Footer line at bottom left for BOTH footnotes and source (place footnote at one line above source). Default legend top-right inside the chart; if space is constrained, place it below the chart.
3. Typography: Microsoft YaHei (微软雅黑). Font sizes at 1920x1080: title 24px, subtitle 10, body and labels 10 px, axis ticks and legend 8px, footnotes 8 px. Title weight 600; other text 150. Use these sizes only and keep a consistent hierarchy. Left-align labels and values. Avoid mixed fonts.
4. Color system overview: Built on a clinical foundation of paper white and structure gray, this palette prioritizes content through high-contrast neutrality. Ink black softens the reading experience, while slate defines secondary hierarchy. Color serves a strict utility: Deep navy anchors the design, and alert red acts as a deliberate disruption for urgency, resulting in a distraction-free aesthetic governed purely by function.
5. Encodings and strokes: Use color to differentiate categories or phases; use size, area, or line thickness to encode magnitude. Default strokes: data lines 2 px (emphasis 3 px), axes 0.5 px, gridlines 0.5 px. Points are 4 px circles, bars have 8 px gaps and 0.5 px corner radius (sharp edges), area fills at 75%% opacity. MUST Not Have gradients, glows, or ANY heavy effects.
6. Numbers, dates, and units (Chinese conventions): Use Arabic numerals; prefer scaled units 万 or 亿 to shorten large values (e.g., 2.35亿). If not scaled, use comma thousands separator (12,345). Decimals: 1 place for KPIs, 2 for financials. Percent format: 12.3%%. Dates: YYYY年M月 (e.g., 2025年1月) or YYYY年Qx季度 for quarters. Currency: prefix with ¥ (e.g., ¥2.3亿). Use Chinese labels for axes, legends, and notes; employ the Chinese colon "：" in label pairs. Always state measurement units in axis titles or subtitles; place assumptions in footnotes.`, imagePrompt)
}
